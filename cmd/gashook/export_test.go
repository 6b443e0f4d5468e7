package main

import (
	"encoding/json"
	"reflect"
	"testing"

	"gashook/internal/model"
)

func TestRenderSnapshot(t *testing.T) {
	snapshot := model.PoolSnapshot{
		ChainID:       31337,
		Pool:          "0x00000000000000000000000000000000000000A1",
		MovingAverage: "115",
		SampleCount:   2,
		BaseFee:       5000,
		LastBlock:     42,
		UpdatedAt:     "2026-08-25T00:00:00Z",
	}

	out, err := renderSnapshot(snapshot)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var got model.PoolSnapshot
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("parse rendered snapshot: %v", err)
	}
	if !reflect.DeepEqual(got, snapshot) {
		t.Fatalf("snapshot mismatch: %+v != %+v", got, snapshot)
	}
}
