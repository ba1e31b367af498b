//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"nexus-gateway/domain"
)

// IIdentityStore resolves identities and answers durable room-membership
// queries. Durable membership is distinct from in-memory presence: the
// former is written by the project CRUD endpoints, the latter by the
// gateway itself.
type IIdentityStore interface {
	GetActiveUser(ctx context.Context, userID string) (domain.User, error)
	IsRoomMember(ctx context.Context, roomID, userID string) (bool, error)
}

// IMessageStore persists chat messages. AppendMessage returns the stored
// record with its assigned id and timestamp.
type IMessageStore interface {
	AppendMessage(ctx context.Context, message domain.ChatMessage) (domain.ChatMessage, error)
}

type WorkerName string

// Worker doesn't protect itself; supervision is the supervisor's job.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
