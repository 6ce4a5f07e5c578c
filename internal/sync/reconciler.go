// Package sync reconciles local state with the canonical remote service:
// push dirty records first, then fold remote snapshots back in without ever
// overwriting unsent local intent.
package sync

import (
	"context"
	"errors"
	"log"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/carsonvertex/tauri-pos-app/internal/kafka"
	"github.com/carsonvertex/tauri-pos-app/internal/pos"
	"github.com/carsonvertex/tauri-pos-app/internal/redisx"
	"github.com/carsonvertex/tauri-pos-app/internal/remote"
	"github.com/carsonvertex/tauri-pos-app/internal/store"
)

// Report summarizes one sync run.
type Report struct {
	Offline    bool `json:"offline"`
	Pushed     int  `json:"pushed"`
	PushFailed int  `json:"push_failed"`
	Pulled     int  `json:"pulled"`
	Skipped    int  `json:"skipped"` // remote records discarded because local intent outranks them
}

type Reconciler struct {
	Store  store.Store
	Remote *remote.Client
	Redis  *redis.Client    // optional
	Events *kafkax.Producer // optional; bound to the sync.completed topic
	Failed *kafkax.Producer // optional; bound to the sync.record.failed topic
	Name   string

	Interval time.Duration
	Timeout  time.Duration // per remote call
	Now      func() time.Time

	mu stdsync.Mutex     // single-flight guard around Run
	wg stdsync.WaitGroup // tracks in-flight runs for shutdown
}

func NewReconciler(st store.Store, rc *remote.Client, interval, timeout time.Duration, name string) *Reconciler {
	return &Reconciler{
		Store:    st,
		Remote:   rc,
		Name:     name,
		Interval: interval,
		Timeout:  timeout,
		Now:      time.Now,
	}
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Reconciler) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}

// Probe checks remote connectivity. Offline is an expected condition.
func (r *Reconciler) Probe(ctx context.Context) bool {
	cctx, cancel := r.callCtx(ctx)
	defer cancel()
	return r.Remote.Health(cctx)
}

// Run executes one full cycle: push products, push orders, pull products,
// pull orders. Only one run may be in flight; a losing caller gets
// pos.ErrSyncInProgress. Per-record failures are counted, never raised.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	if !r.mu.TryLock() {
		return Report{}, pos.ErrSyncInProgress
	}
	defer r.mu.Unlock()
	r.wg.Add(1)
	defer r.wg.Done()
	return r.runLocked(ctx), nil
}

// RunAsync starts a cycle on its own goroutine so a forced sync never blocks
// a request-handling thread. The single-flight guard is taken before the
// goroutine starts, so the caller learns immediately whether a run is
// already in flight.
func (r *Reconciler) RunAsync() error {
	if !r.mu.TryLock() {
		return pos.ErrSyncInProgress
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.mu.Unlock()
		r.runLocked(context.Background())
	}()
	return nil
}

// Wait blocks until any in-flight run has finished. Shutdown calls it before
// closing the event producers so a forced sync cannot publish to a closed
// inbox.
func (r *Reconciler) Wait() { r.wg.Wait() }

func (r *Reconciler) runLocked(ctx context.Context) Report {
	var rep Report
	if !r.Probe(ctx) {
		log.Printf("sync: remote offline, skipping cycle")
		rep.Offline = true
		return rep
	}

	r.pushProducts(ctx, &rep)
	r.pushOrders(ctx, &rep)
	r.pullProducts(ctx, &rep)
	r.pullOrders(ctx, &rep)

	r.finishRun(ctx, rep)
	log.Printf("sync: cycle done pushed=%d failed=%d pulled=%d skipped=%d",
		rep.Pushed, rep.PushFailed, rep.Pulled, rep.Skipped)
	return rep
}

// Start runs cycles on a background goroutine at the configured interval
// until ctx is cancelled. A cycle's error never escapes the loop.
func (r *Reconciler) Start(ctx context.Context) {
	go func() {
		t := time.NewTicker(r.Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := r.Run(ctx); err != nil && !errors.Is(err, pos.ErrSyncInProgress) {
					log.Printf("sync: scheduled run: %v", err)
				}
			}
		}
	}()
}

func (r *Reconciler) pushProducts(ctx context.Context, rep *Report) {
	products, err := r.Store.ProductsBySyncStatusIn(ctx, pos.PushableStatuses())
	if err != nil {
		log.Printf("sync: select dirty products: %v", err)
		return
	}

	for i := range products {
		p := &products[i]
		ok, err := r.Store.UpdateProductSyncState(ctx, p.ID, p.SyncStatus, pos.SyncSyncing, nil, nil)
		if err != nil {
			log.Printf("sync: mark product %s SYNCING: %v", p.ID, err)
			continue
		}
		if !ok {
			// a concurrent local edit moved the record; next cycle gets it
			continue
		}

		remoteID, err := r.pushOneProduct(ctx, p)
		if err != nil {
			log.Printf("sync: push product %s (%s): %v", p.Name, p.ID, err)
			if _, err := r.Store.UpdateProductSyncState(ctx, p.ID, pos.SyncSyncing, pos.SyncFailed, nil, nil); err != nil {
				log.Printf("sync: mark product %s FAILED: %v", p.ID, err)
			}
			r.publishRecordFailed(ctx, "product", p.ID, err)
			rep.PushFailed++
			continue
		}

		now := r.now()
		synced, err := r.Store.UpdateProductSyncState(ctx, p.ID, pos.SyncSyncing, pos.SyncSynced, remoteID, &now)
		if err != nil {
			log.Printf("sync: mark product %s SYNCED: %v", p.ID, err)
			continue
		}
		if !synced {
			// a local edit landed mid-push; the record stays dirty for the
			// next cycle but keeps the identity the remote just assigned
			log.Printf("sync: product %s edited during push, left queued", p.ID)
		}
		rep.Pushed++
	}
}

func (r *Reconciler) pushOneProduct(ctx context.Context, p *pos.Product) (*int64, error) {
	cctx, cancel := r.callCtx(ctx)
	defer cancel()

	if p.RemoteID == nil {
		created, err := r.Remote.CreateProduct(cctx, toRemoteProduct(p))
		if err != nil {
			return nil, err
		}
		return &created.ID, nil
	}
	if _, err := r.Remote.UpdateProduct(cctx, *p.RemoteID, toRemoteProduct(p)); err != nil {
		return nil, err
	}
	return p.RemoteID, nil
}

func (r *Reconciler) pushOrders(ctx context.Context, rep *Report) {
	orders, err := r.Store.OrdersBySyncStatusIn(ctx, pos.PushableStatuses())
	if err != nil {
		log.Printf("sync: select dirty orders: %v", err)
		return
	}

	for i := range orders {
		o := &orders[i]
		ok, err := r.Store.UpdateOrderSyncState(ctx, o.ID, o.SyncStatus, pos.SyncSyncing, nil, nil)
		if err != nil {
			log.Printf("sync: mark order %s SYNCING: %v", o.ID, err)
			continue
		}
		if !ok {
			continue
		}

		remoteID, err := r.pushOneOrder(ctx, o)
		if err != nil {
			log.Printf("sync: push order %s (%s): %v", o.OrderNumber, o.ID, err)
			if _, err := r.Store.UpdateOrderSyncState(ctx, o.ID, pos.SyncSyncing, pos.SyncFailed, nil, nil); err != nil {
				log.Printf("sync: mark order %s FAILED: %v", o.ID, err)
			}
			r.publishRecordFailed(ctx, "order", o.ID, err)
			rep.PushFailed++
			continue
		}

		now := r.now()
		synced, err := r.Store.UpdateOrderSyncState(ctx, o.ID, pos.SyncSyncing, pos.SyncSynced, remoteID, &now)
		if err != nil {
			log.Printf("sync: mark order %s SYNCED: %v", o.ID, err)
			continue
		}
		if !synced {
			log.Printf("sync: order %s edited during push, left queued", o.ID)
		}
		rep.Pushed++
	}
}

func (r *Reconciler) pushOneOrder(ctx context.Context, o *pos.Order) (*int64, error) {
	cctx, cancel := r.callCtx(ctx)
	defer cancel()

	if o.RemoteID == nil {
		created, err := r.Remote.CreateOrder(cctx, toRemoteOrder(o))
		if err != nil {
			return nil, err
		}
		return &created.ID, nil
	}
	if _, err := r.Remote.UpdateOrder(cctx, *o.RemoteID, toRemoteOrder(o)); err != nil {
		return nil, err
	}
	return o.RemoteID, nil
}

func (r *Reconciler) pullProducts(ctx context.Context, rep *Report) {
	cctx, cancel := r.callCtx(ctx)
	remotes, err := r.Remote.ListProducts(cctx)
	cancel()
	if err != nil {
		log.Printf("sync: pull products: %v", err)
		return
	}

	for _, rp := range remotes {
		local, err := r.Store.FindProductByRemoteID(ctx, rp.ID)
		switch {
		case errors.Is(err, pos.ErrNotFound):
			if err := r.Store.SaveProduct(ctx, newLocalProduct(rp, r.now())); err != nil {
				log.Printf("sync: materialize remote product %d: %v", rp.ID, err)
				continue
			}
			rep.Pulled++
		case err != nil:
			log.Printf("sync: lookup product by remote id %d: %v", rp.ID, err)
		case local.SyncStatus == pos.SyncSynced:
			applyRemoteProduct(local, rp, r.now())
			if err := r.Store.SaveProduct(ctx, local); err != nil {
				log.Printf("sync: apply remote product %d: %v", rp.ID, err)
				continue
			}
			rep.Pulled++
		default:
			// unresolved local intent outranks the pulled snapshot
			rep.Skipped++
		}
	}
}

func (r *Reconciler) pullOrders(ctx context.Context, rep *Report) {
	cctx, cancel := r.callCtx(ctx)
	remotes, err := r.Remote.ListOrders(cctx)
	cancel()
	if err != nil {
		log.Printf("sync: pull orders: %v", err)
		return
	}

	for _, ro := range remotes {
		local, err := r.Store.FindOrderByRemoteID(ctx, ro.ID)
		switch {
		case errors.Is(err, pos.ErrNotFound):
			if err := r.Store.SaveOrder(ctx, newLocalOrder(ro, r.now())); err != nil {
				log.Printf("sync: materialize remote order %d: %v", ro.ID, err)
				continue
			}
			rep.Pulled++
		case err != nil:
			log.Printf("sync: lookup order by remote id %d: %v", ro.ID, err)
		case local.SyncStatus == pos.SyncSynced:
			applyRemoteOrder(local, ro, r.now())
			if err := r.Store.SaveOrder(ctx, local); err != nil {
				log.Printf("sync: apply remote order %d: %v", ro.ID, err)
				continue
			}
			rep.Pulled++
		default:
			rep.Skipped++
		}
	}
}

func (r *Reconciler) finishRun(ctx context.Context, rep Report) {
	if r.Redis != nil {
		_ = r.Redis.Set(ctx, redisx.KeyLastSyncRun, r.now().Format(time.RFC3339), 0).Err()
		// counts changed; drop the cached summary
		_ = r.Redis.Del(ctx, redisx.KeySyncSummary).Err()
	}
	if r.Events == nil {
		return
	}
	ev := pos.Envelope{
		EventID:      uuid.NewString(),
		EventType:    pos.EventSyncCompleted,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     r.Name,
		Payload: kafkax.MustMarshal(pos.SyncCompletedPayload{
			Pushed:     rep.Pushed,
			PushFailed: rep.PushFailed,
			Pulled:     rep.Pulled,
			Skipped:    rep.Skipped,
		}),
	}
	r.Events.Publish(pos.PartitionKey(r.Name), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(pos.EventSyncCompleted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (r *Reconciler) publishRecordFailed(ctx context.Context, entity, id string, cause error) {
	if r.Failed == nil {
		return
	}
	ev := pos.Envelope{
		EventID:       uuid.NewString(),
		EventType:     pos.EventSyncRecordFailed,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      r.Name,
		CorrelationID: id,
		Payload: kafkax.MustMarshal(pos.SyncRecordFailedPayload{
			Entity: entity,
			ID:     id,
			Reason: cause.Error(),
		}),
	}
	r.Failed.Publish(pos.PartitionKey(id), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(pos.EventSyncRecordFailed)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
