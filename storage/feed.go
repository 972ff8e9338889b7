package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"kanban-api/domain"
)

const (
	feedWorkers        = 4
	feedBuffer         = 1024
	feedEnqueueTimeout = 30 * time.Second
)

// feedQueue is the subset of the azqueue client the feed needs.
type feedQueue interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// activityFeed publishes activity records to the external feed queue on a
// small worker pool. Publishing is best-effort: a saturated buffer or a
// failed enqueue drops the record with a log line, never failing the
// mutation that produced it.
type activityFeed struct {
	queue feedQueue
	jobs  chan domain.Activity
	wg    sync.WaitGroup
}

func newActivityFeed(queue feedQueue) *activityFeed {
	return startActivityFeed(queue, feedWorkers, feedBuffer)
}

func startActivityFeed(queue feedQueue, workers, buffer int) *activityFeed {
	f := &activityFeed{
		queue: queue,
		jobs:  make(chan domain.Activity, buffer),
	}
	for i := 0; i < workers; i++ {
		f.wg.Add(1)
		go f.worker()
	}
	log.WithFields(log.Fields{"workers": workers, "buffer": buffer}).Info("activity feed started")
	return f
}

func (f *activityFeed) publish(a domain.Activity) {
	select {
	case f.jobs <- a:
	default:
		log.WithField("activity", a.ID).Warn("activity feed saturated, dropping record")
	}
}

func (f *activityFeed) worker() {
	defer f.wg.Done()
	for a := range f.jobs {
		data, err := json.Marshal(a)
		if err != nil {
			log.Errorf("activity feed marshal: %v", err)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), feedEnqueueTimeout)
		_, err = f.queue.EnqueueMessage(ctx, string(data), nil)
		cancel()
		if err != nil {
			log.WithField("activity", a.ID).Errorf("activity feed enqueue: %v", err)
		}
	}
}

func (f *activityFeed) close() {
	close(f.jobs)
	f.wg.Wait()
}

func marshalEntity(ent any) ([]byte, error) {
	return json.Marshal(ent)
}
