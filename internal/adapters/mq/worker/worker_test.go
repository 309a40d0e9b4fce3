package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/fairteams/internal/adapters/mq/worker"
	"github.com/okian/fairteams/internal/domain/engine"
	model "github.com/okian/fairteams/internal/domain/model"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan *model.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan *model.Job, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan *model.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	close(mq.jobs)
	return nil
}

// mockGenerator returns seq results, fails when err is set, or blocks until
// its context ends when block is set.
type mockGenerator struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   bool
	started chan struct{}
}

func newMockGenerator() *mockGenerator {
	return &mockGenerator{started: make(chan struct{}, 10)}
}

func (g *mockGenerator) Generate(ctx context.Context, players []roster.Player) (engine.Result, error) {
	g.mu.Lock()
	g.calls++
	n, err, block := g.calls, g.err, g.block
	g.mu.Unlock()
	g.started <- struct{}{}

	if block {
		<-ctx.Done()
		return engine.Result{}, ctx.Err()
	}
	if err != nil {
		return engine.Result{}, err
	}
	return engine.Result{Seq: n, Pool: len(players)}, nil
}

func (g *mockGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func waitDone(j *model.Job) bool {
	select {
	case <-j.Done():
		return true
	case <-time.After(time.Second):
		return false
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue()
		gen := newMockGenerator()
		w := worker.NewInMemoryWorker(q, gen, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			j := model.NewJob(context.Background(), "", make([]roster.Player, 12))
			q.jobs <- j

			convey.Convey("Then it runs to done with the generator result", func() {
				convey.So(waitDone(j), convey.ShouldBeTrue)
				snap := j.Snapshot()
				convey.So(snap.Status, convey.ShouldEqual, model.StatusDone)
				convey.So(snap.Result.Pool, convey.ShouldEqual, 12)
			})
		})

		convey.Convey("When the generator fails", func() {
			gen.err = errors.New("generator error")
			j := model.NewJob(context.Background(), "", nil)
			q.jobs <- j

			convey.Convey("Then the job is failed", func() {
				convey.So(waitDone(j), convey.ShouldBeTrue)
				convey.So(j.Status(), convey.ShouldEqual, model.StatusFailed)
				convey.So(j.Snapshot().Err, convey.ShouldEqual, gen.err)
			})
		})

		convey.Convey("When a job is cancelled before a worker takes it", func() {
			j := model.NewJob(context.Background(), "", nil)
			j.Cancel()
			q.jobs <- j
			next := model.NewJob(context.Background(), "", nil)
			q.jobs <- next

			convey.Convey("Then it is skipped without running the generator", func() {
				convey.So(waitDone(next), convey.ShouldBeTrue)
				convey.So(gen.callCount(), convey.ShouldEqual, 1)
				convey.So(j.Status(), convey.ShouldEqual, model.StatusCanceled)
			})
		})

		convey.Convey("When a running job is cancelled", func() {
			gen.block = true
			j := model.NewJob(context.Background(), "", nil)
			q.jobs <- j
			<-gen.started
			j.Cancel()

			convey.Convey("Then the job ends canceled", func() {
				convey.So(waitDone(j), convey.ShouldBeTrue)
				convey.So(j.Status(), convey.ShouldEqual, model.StatusCanceled)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.Convey("Then it stops gracefully", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		q := newMockQueue()
		gen := newMockGenerator()
		p := worker.NewPool(3, q, gen)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		convey.So(p.Size(), convey.ShouldEqual, 3)

		convey.Convey("When several jobs are queued", func() {
			jobs := make([]*model.Job, 6)
			for i := range jobs {
				jobs[i] = model.NewJob(context.Background(), "", nil)
				q.jobs <- jobs[i]
			}

			convey.Convey("Then every job completes exactly once", func() {
				for _, j := range jobs {
					convey.So(waitDone(j), convey.ShouldBeTrue)
					convey.So(j.Status(), convey.ShouldEqual, model.StatusDone)
				}
				convey.So(gen.callCount(), convey.ShouldEqual, len(jobs))
			})

			convey.Convey("And the pool shuts down", func() {
				for _, j := range jobs {
					waitDone(j)
				}
				convey.So(p.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		p := worker.NewPool(0, newMockQueue(), newMockGenerator())

		convey.Convey("Then one worker per CPU is used", func() {
			convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
