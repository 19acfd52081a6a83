package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/wire"
	"google.golang.org/protobuf/types/known/structpb"
)

type recvStream interface {
	RecvMsg(m any) error
}

// Subscription delivers full snapshots of one book, in order, until it is
// cancelled or fails. A failure is terminal: Snapshots is closed and Err
// reports it. Cancellation closes Snapshots with a nil Err.
type Subscription struct {
	snapshots chan []models.Entry
	cancel    context.CancelFunc

	mu  sync.Mutex
	err error
}

func newSubscription(ctx context.Context, cancel context.CancelFunc, stream recvStream) *Subscription {
	s := &Subscription{
		snapshots: make(chan []models.Entry),
		cancel:    cancel,
	}
	go s.run(ctx, stream)
	return s
}

func (s *Subscription) run(ctx context.Context, stream recvStream) {
	defer close(s.snapshots)
	defer s.cancel()

	for {
		msg := new(structpb.ListValue)
		if err := stream.RecvMsg(msg); err != nil {
			if ctx.Err() == nil {
				s.fail(err)
			}
			return
		}

		entries, err := wire.SnapshotFromProto(msg)
		if err != nil {
			s.fail(err)
			return
		}

		select {
		case s.snapshots <- entries:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Subscription) fail(err error) {
	if errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: feed closed by server", common.ErrStoreUnavailable)
	} else {
		err = wire.FromStatus(err)
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Snapshots is closed when the subscription ends.
func (s *Subscription) Snapshots() <-chan []models.Entry {
	return s.snapshots
}

// Err is meaningful once Snapshots is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel may be called any number of times.
func (s *Subscription) Cancel() {
	s.cancel()
}
