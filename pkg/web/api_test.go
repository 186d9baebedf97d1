package web

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dbehnke/dmr-nexus/pkg/call"
	"github.com/dbehnke/dmr-nexus/pkg/logger"
	"github.com/dbehnke/dmr-nexus/pkg/peer"
	"github.com/dbehnke/dmr-nexus/pkg/protocol"
)

type fakeUnitLocator struct{}

func (fakeUnitLocator) GetByUnit(unitID uint32) (uint32, bool) { return 0, false }

func TestHandlePeers_NoRegistry(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("GET", "/api/peers", nil)
	w := httptest.NewRecorder()

	api.HandlePeers(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var peers []PeerDTO
	if err := json.NewDecoder(w.Body).Decode(&peers); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(peers) != 0 {
		t.Errorf("expected empty peer list, got %d", len(peers))
	}
}

func TestHandlePeers_WithRegistry(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)
	reg := peer.NewRegistry()

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 10001}
	p, err := reg.Add(312000, addr)
	if err != nil {
		t.Fatalf("failed to add peer: %v", err)
	}
	p.SetActive()
	p.Callsign = "W1ABC"

	api.SetDeps(reg, nil)

	req := httptest.NewRequest("GET", "/api/peers", nil)
	w := httptest.NewRecorder()
	api.HandlePeers(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var peers []PeerDTO
	if err := json.NewDecoder(w.Body).Decode(&peers); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(peers) != 1 || peers[0].ID != 312000 || peers[0].Callsign != "W1ABC" {
		t.Errorf("unexpected peer list: %+v", peers)
	}
}

func TestHandleActivity_NoTracker(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("GET", "/api/activity", nil)
	w := httptest.NewRecorder()
	api.HandleActivity(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var calls []CallDTO
	if err := json.NewDecoder(w.Body).Decode(&calls); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("expected empty activity list, got %d", len(calls))
	}
}

func TestHandleTransmissions_WithTracker(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	tracker := call.NewTracker(fakeUnitLocator{}, nil)

	pkt := &protocol.DataPacket{SrcID: 1234560, DstID: 91, PeerID: 3001, StreamID: 1000}
	pkt.SetCallType(protocol.CallTypeGroup)
	pkt.SetVoiceType(protocol.VoiceHead)
	c := tracker.Observe(pkt)
	c.Ended = true

	api := NewAPI(log)
	api.SetTracker(tracker)

	req := httptest.NewRequest("GET", "/api/transmissions", nil)
	w := httptest.NewRecorder()
	api.HandleTransmissions(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if total, ok := response["total"].(float64); !ok || total != 1 {
		t.Errorf("expected total 1, got %v", response["total"])
	}
}

func TestHandleTransmissions_MethodNotAllowed(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	api := NewAPI(log)

	req := httptest.NewRequest("POST", "/api/transmissions", nil)
	w := httptest.NewRecorder()

	api.HandleTransmissions(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}
