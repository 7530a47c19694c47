package core

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/joeydtaylor/tokenfactory/pkg/holder"
)

type snapshotView[T any] struct {
	Value T         `json:"value"`
	SetAt time.Time `json:"setAt"`
	Seq   uint64    `json:"seq"`
}

// SnapshotHandler serves the slot's current entry as JSON, or 503 while empty.
func SnapshotHandler[T any](slot *holder.Slot[T]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		e := slot.Snapshot()
		if e.Seq == 0 {
			http.Error(w, "no token available", http.StatusServiceUnavailable)
			return
		}
		b, err := json.Marshal(snapshotView[T]{Value: e.Value, SetAt: e.SetAt, Seq: e.Seq})
		if err != nil {
			http.Error(w, "encode: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, b, http.StatusOK)
	})
}
