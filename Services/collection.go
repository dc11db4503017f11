package Services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"Attendance/Models"

	"gorm.io/gorm"
)

// Record is a stored entity addressed by a string id.
type Record interface {
	RecordID() string
}

// collection is the CRUD facade shared by every entity. Each successful
// mutation re-reads the whole collection and publishes it on the hub.
type collection[T Record] struct {
	name     string
	order    string
	db       *gorm.DB
	validate *Models.Validator
	hub      *Hub[T]

	// serialises reload+publish so subscribers never go back in time
	publishMu sync.Mutex
}

func newCollection[T Record](name, order string, db *gorm.DB, v *Models.Validator) *collection[T] {
	return &collection[T]{
		name:     name,
		order:    order,
		db:       db,
		validate: v,
		hub:      NewHub[T](),
	}
}

// Create stores rec. It fails when the id is empty or taken, or rec is invalid.
func (c *collection[T]) Create(ctx context.Context, rec *T) error {
	if c.hub.Closed() {
		return ErrClosed
	}
	id := (*rec).RecordID()
	if strings.TrimSpace(id) == "" {
		log.Printf("Error creating %s: %v\n", c.name, ErrEmptyID)
		return ErrEmptyID
	}
	if r, ok := any(rec).(Models.Syncable); ok {
		r.Touch(1)
	}
	if err := c.validate.Struct(rec); err != nil {
		log.Printf("Error creating %s %s: %v\n", c.name, id, err)
		return err
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateID
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		log.Printf("Error creating %s %s: %v\n", c.name, id, err)
		return fmt.Errorf("create %s %q: %w", c.name, id, err)
	}

	c.publish(ctx)
	return nil
}

// Get returns the record stored under id.
func (c *collection[T]) Get(ctx context.Context, id string) (*T, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyID
	}

	var rec T
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("%s %s not found\n", c.name, id)
		return nil, fmt.Errorf("%s %q: %w", c.name, id, ErrNotFound)
	}
	if err != nil {
		log.Printf("Error reading %s %s: %v\n", c.name, id, err)
		return nil, fmt.Errorf("get %s %q: %w", c.name, id, err)
	}
	return &rec, nil
}

// List returns every record in collection order. It never returns nil on success.
func (c *collection[T]) List(ctx context.Context) ([]T, error) {
	recs := []T{}
	if err := c.db.WithContext(ctx).Order(c.order).Find(&recs).Error; err != nil {
		log.Printf("Error listing %s: %v\n", c.name, err)
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	return recs, nil
}

// Update replaces the record stored under id with rec, whose id must be id.
func (c *collection[T]) Update(ctx context.Context, id string, rec *T) error {
	if c.hub.Closed() {
		return ErrClosed
	}
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	if got := (*rec).RecordID(); got != id {
		log.Printf("Error updating %s %s: record carries id %q\n", c.name, id, got)
		return fmt.Errorf("update %s %q: %w", c.name, id, ErrIDMismatch)
	}
	if err := c.validate.Struct(rec); err != nil {
		log.Printf("Error updating %s %s: %v\n", c.name, id, err)
		return err
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored T
		if err := tx.Where("id = ?", id).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		nextRevision(rec, &stored)
		return tx.Save(rec).Error
	})
	if err != nil {
		log.Printf("Error updating %s %s: %v\n", c.name, id, err)
		return fmt.Errorf("update %s %q: %w", c.name, id, err)
	}

	c.publish(ctx)
	return nil
}

// Delete removes the record stored under id.
func (c *collection[T]) Delete(ctx context.Context, id string) error {
	if c.hub.Closed() {
		return ErrClosed
	}
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}

	result := c.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		log.Printf("Error deleting %s %s: %v\n", c.name, id, result.Error)
		return fmt.Errorf("delete %s %q: %w", c.name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		log.Printf("Error deleting %s %s: not found\n", c.name, id)
		return fmt.Errorf("delete %s %q: %w", c.name, id, ErrNotFound)
	}

	c.publish(ctx)
	return nil
}

// Watch streams the full collection: first the current list, then the list
// after each successful mutation.
func (c *collection[T]) Watch(ctx context.Context) (<-chan []T, error) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	if c.hub.Closed() {
		return nil, ErrClosed
	}
	initial, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return c.hub.Subscribe(ctx, initial), nil
}

// Close ends every Watch stream. Later mutations and Watch calls fail with
// ErrClosed.
func (c *collection[T]) Close() {
	c.hub.Close()
}

// modify loads the record under id, lets fn change it and saves the result
// as the next revision.
func (c *collection[T]) modify(ctx context.Context, id string, fn func(rec *T) error) (*T, error) {
	if c.hub.Closed() {
		return nil, ErrClosed
	}
	var rec T
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		stored := rec
		if err := fn(&rec); err != nil {
			return err
		}
		nextRevision(&rec, &stored)
		if err := c.validate.Struct(&rec); err != nil {
			return err
		}
		return tx.Save(&rec).Error
	})
	if err != nil {
		log.Printf("Error updating %s %s: %v\n", c.name, id, err)
		return nil, fmt.Errorf("update %s %q: %w", c.name, id, err)
	}

	c.publish(ctx)
	return &rec, nil
}

// pendingUpload returns the records not yet sent to the server, oldest first.
func (c *collection[T]) pendingUpload(ctx context.Context, timeColumn string) ([]T, error) {
	recs := []T{}
	err := c.db.WithContext(ctx).
		Where("upload_status = ? OR upload_status = '' OR upload_status IS NULL", string(Models.UploadPending)).
		Order(timeColumn + " ASC").
		Find(&recs).Error
	if err != nil {
		log.Printf("Error listing pending %s: %v\n", c.name, err)
		return nil, fmt.Errorf("list pending %s: %w", c.name, err)
	}
	return recs, nil
}

// markUploaded flags recs as uploaded at the given time. A record changed
// since it was read keeps its newer revision and stays pending.
func (c *collection[T]) markUploaded(ctx context.Context, recs []T, at time.Time) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	var marked int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range recs {
			q := tx.Model(new(T)).Where("id = ?", recs[i].RecordID())
			if r, ok := any(&recs[i]).(Models.Syncable); ok {
				q = q.Where("revision = ?", r.RecordRevision())
			}
			result := q.UpdateColumns(map[string]interface{}{
				"upload_status": string(Models.UploadUploaded),
				"uploaded_at":   at.UTC(),
			})
			if result.Error != nil {
				return result.Error
			}
			marked += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		log.Printf("Error marking %s uploaded: %v\n", c.name, err)
		return 0, fmt.Errorf("mark %s uploaded: %w", c.name, err)
	}
	if marked < int64(len(recs)) {
		log.Printf("%d %s changed during upload and stay pending\n", int64(len(recs))-marked, c.name)
	}

	c.publish(ctx)
	return marked, nil
}

func (c *collection[T]) publish(ctx context.Context) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	list, err := c.List(context.WithoutCancel(ctx))
	if err != nil {
		log.Printf("Error refreshing %s stream: %v\n", c.name, err)
		return
	}
	c.hub.Publish(list)
}

// nextRevision moves rec one revision past stored, for records that are
// uploaded.
func nextRevision[T Record](rec, stored *T) {
	r, ok := any(rec).(Models.Syncable)
	if !ok {
		return
	}
	r.Touch(any(stored).(Models.Syncable).RecordRevision() + 1)
}
