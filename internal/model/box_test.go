package model

import (
	"testing"
	"time"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from   BoxStatus
		want   BoxStatus
		wantOK bool
	}{
		{BoxStatusPending, BoxStatusActive, true},
		{BoxStatusActive, BoxStatusSealed, true},
		{BoxStatusSealed, BoxStatusInTransit, true},
		{BoxStatusInTransit, BoxStatusReceived, true},
		{BoxStatusReceived, "", false},
		{"bogus", "", false},
	}

	for _, tt := range tests {
		got, ok := NextStatus(tt.from)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NextStatus(%q) = %q, %v; want %q, %v", tt.from, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPreviousStatus(t *testing.T) {
	tests := []struct {
		from   BoxStatus
		want   BoxStatus
		wantOK bool
	}{
		{BoxStatusReceived, BoxStatusInTransit, true},
		{BoxStatusInTransit, BoxStatusSealed, true},
		{BoxStatusSealed, BoxStatusActive, true},
		{BoxStatusActive, "", false},
		{BoxStatusPending, "", false},
	}

	for _, tt := range tests {
		got, ok := PreviousStatus(tt.from)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("PreviousStatus(%q) = %q, %v; want %q, %v", tt.from, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BoxStatus
		expected bool
	}{
		{BoxStatusActive, BoxStatusSealed, true},
		{BoxStatusSealed, BoxStatusActive, true},
		{BoxStatusSealed, BoxStatusInTransit, true},
		{BoxStatusInTransit, BoxStatusReceived, true},
		{BoxStatusReceived, BoxStatusInTransit, true},
		// Receiving by scan skips intermediate states.
		{BoxStatusActive, BoxStatusReceived, true},
		{BoxStatusSealed, BoxStatusReceived, true},
		{BoxStatusPending, BoxStatusReceived, false},
		{BoxStatusReceived, BoxStatusReceived, false},
		{BoxStatusActive, BoxStatusInTransit, false},
		{BoxStatusReceived, BoxStatusActive, false},
		{BoxStatusActive, BoxStatusActive, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.expected {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
		}
	}
}

func TestApplyStatusForward(t *testing.T) {
	created := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	box := &Box{Status: BoxStatusActive, CreatedAt: created}

	sealed := created.Add(time.Hour)
	if err := box.ApplyStatus(BoxStatusSealed, sealed); err != nil {
		t.Fatalf("seal: %v", err)
	}
	shipped := sealed.Add(time.Hour)
	if err := box.ApplyStatus(BoxStatusInTransit, shipped); err != nil {
		t.Fatalf("ship: %v", err)
	}
	received := shipped.Add(time.Hour)
	if err := box.ApplyStatus(BoxStatusReceived, received); err != nil {
		t.Fatalf("receive: %v", err)
	}

	if box.Status != BoxStatusReceived {
		t.Errorf("expected RECEIVED, got %q", box.Status)
	}
	if box.SealedAt == nil || !box.SealedAt.Equal(sealed) {
		t.Errorf("sealed_at = %v, want %v", box.SealedAt, sealed)
	}
	if box.InTransitAt == nil || !box.InTransitAt.Equal(shipped) {
		t.Errorf("in_transit_at = %v, want %v", box.InTransitAt, shipped)
	}
	if box.ReceivedAt == nil || !box.ReceivedAt.Equal(received) {
		t.Errorf("received_at = %v, want %v", box.ReceivedAt, received)
	}
	if !box.CreatedAt.Equal(created) {
		t.Errorf("created_at changed to %v", box.CreatedAt)
	}
}

func TestApplyStatusRevertClearsLaterStamps(t *testing.T) {
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	s, tr, r := now, now.Add(time.Minute), now.Add(2*time.Minute)
	box := &Box{Status: BoxStatusReceived, SealedAt: &s, InTransitAt: &tr, ReceivedAt: &r}

	if err := box.ApplyStatus(BoxStatusInTransit, now.Add(time.Hour)); err != nil {
		t.Fatalf("revert to in transit: %v", err)
	}
	if box.ReceivedAt != nil {
		t.Error("expected received_at cleared")
	}
	if box.InTransitAt == nil || box.SealedAt == nil {
		t.Error("expected earlier stamps kept")
	}

	box.ApplyStatus(BoxStatusSealed, now.Add(2*time.Hour))
	box.ApplyStatus(BoxStatusActive, now.Add(3*time.Hour))
	if box.SealedAt != nil || box.InTransitAt != nil || box.ReceivedAt != nil {
		t.Errorf("expected all stamps cleared on ACTIVE, got %+v", box)
	}
}

func TestApplyStatusRejectsSkip(t *testing.T) {
	box := &Box{Status: BoxStatusActive}
	if err := box.ApplyStatus(BoxStatusInTransit, time.Now()); err == nil {
		t.Error("expected error skipping SEALED")
	}
	if box.Status != BoxStatusActive || box.InTransitAt != nil {
		t.Error("rejected transition must not modify the box")
	}
}

func TestNormalizeBarcode(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"  BOX-001 ", "BOX-001", false},
		{"8712345678906", "8712345678906", false},
		{"", "", true},
		{" \t\n", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeBarcode(tt.raw)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("NormalizeBarcode(%q) = %q, %v; want %q, wantErr %v", tt.raw, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if !BoxStatusInTransit.Valid() || BoxStatus("LOST").Valid() {
		t.Error("box status validity wrong")
	}
	if !ItemStatusDelivered.Valid() || ItemStatus("LOST").Valid() {
		t.Error("item status validity wrong")
	}
	if BoxStatusReceived.Open() || !BoxStatusActive.Open() {
		t.Error("open status wrong")
	}
}
