package web

import (
	"encoding/json"
	"net/http"

	"github.com/dbehnke/dmr-nexus/pkg/bridge"
	"github.com/dbehnke/dmr-nexus/pkg/call"
	"github.com/dbehnke/dmr-nexus/pkg/logger"
	"github.com/dbehnke/dmr-nexus/pkg/peer"
)

// API handles REST API endpoints
type API struct {
	logger  *logger.Logger
	peers   *peer.Registry
	router  *bridge.Router
	tracker *call.Tracker
}

// NewAPI creates a new API instance
func NewAPI(log *logger.Logger) *API {
	return &API{
		logger: log,
	}
}

// SetDeps provides runtime dependencies to the API after construction
func (a *API) SetDeps(reg *peer.Registry, r *bridge.Router) {
	a.peers = reg
	a.router = r
}

// SetTracker wires the call tracker used by HandleActivity and
// HandleTransmissions.
func (a *API) SetTracker(t *call.Tracker) {
	a.tracker = t
}

// PeerDTO is a lightweight response for peer info
type PeerDTO struct {
	ID          uint32 `json:"id"`
	Callsign    string `json:"callsign"`
	Address     string `json:"address"`
	State       string `json:"state"`
	Location    string `json:"location"`
	ConnectedAt int64  `json:"connected_at"`
	LastHeard   int64  `json:"last_heard"`
	PacketsRx   uint64 `json:"packets_rx"`
	BytesRx     uint64 `json:"bytes_rx"`
	PacketsTx   uint64 `json:"packets_tx"`
	BytesTx     uint64 `json:"bytes_tx"`
}

// BridgeDTO is a lightweight response for a conference bridge and its
// member talkgroups.
type BridgeDTO struct {
	Name  string          `json:"name"`
	Rules []BridgeRuleDTO `json:"rules"`
}

type BridgeRuleDTO struct {
	TGID     int  `json:"tgid"`
	Timeslot int  `json:"timeslot"`
	Active   bool `json:"active"`
}

// CallDTO is a lightweight response for an active or recently-ended call
type CallDTO struct {
	CallID    uint32 `json:"call_id"`
	SrcID     uint32 `json:"src_id"`
	DstID     uint32 `json:"dst_id"`
	PeerID    uint32 `json:"peer_id"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time,omitempty"`
	Ended     bool   `json:"ended"`
	Packets   int    `json:"packets"`
}

// HandleStatus handles the /api/status endpoint
func (a *API) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]interface{}{
		"status":  "running",
		"service": "dmr-nexus",
		"version": "dev",
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		a.logger.Error("Failed to encode status response", logger.Error(err))
	}
}

// HandlePeers handles the /api/peers endpoint
func (a *API) HandlePeers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	list := make([]PeerDTO, 0)
	if a.peers != nil {
		for _, p := range a.peers.All() {
			snap := p.Snapshot()
			list = append(list, PeerDTO{
				ID:          snap.ID,
				Callsign:    snap.Callsign,
				Address:     snap.Address,
				State:       snap.State,
				Location:    snap.Location,
				ConnectedAt: snap.ConnectedAt.Unix(),
				LastHeard:   snap.LastHeard.Unix(),
				PacketsRx:   snap.PacketsRx,
				BytesRx:     snap.BytesRx,
				PacketsTx:   snap.PacketsTx,
				BytesTx:     snap.BytesTx,
			})
		}
	}
	if err := json.NewEncoder(w).Encode(list); err != nil {
		a.logger.Error("Failed to encode peers response", logger.Error(err))
	}
}

// HandleBridges handles the /api/bridges endpoint
func (a *API) HandleBridges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	bridges := make([]BridgeDTO, 0)
	if a.router != nil {
		for _, br := range a.router.GetActiveBridges() {
			snap := br.Snapshot()
			dto := BridgeDTO{Name: snap.Name, Rules: make([]BridgeRuleDTO, 0, len(snap.Rules))}
			for _, rs := range snap.Rules {
				dto.Rules = append(dto.Rules, BridgeRuleDTO{
					TGID:     rs.TGID,
					Timeslot: rs.Timeslot,
					Active:   rs.Active,
				})
			}
			bridges = append(bridges, dto)
		}
	}

	if err := json.NewEncoder(w).Encode(bridges); err != nil {
		a.logger.Error("Failed to encode bridges response", logger.Error(err))
	}
}

// HandleActivity handles the /api/activity endpoint, returning calls
// currently in progress.
func (a *API) HandleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	activity := make([]CallDTO, 0)
	if a.tracker != nil {
		for _, c := range a.tracker.Active() {
			activity = append(activity, callDTO(c))
		}
	}
	if err := json.NewEncoder(w).Encode(activity); err != nil {
		a.logger.Error("Failed to encode activity response", logger.Error(err))
	}
}

// HandleTransmissions handles the /api/transmissions endpoint, returning
// the recent call history held in memory by the call tracker. Unlike the
// teacher's database-backed version, this is not persisted across
// restarts; call persistence is out of scope.
func (a *API) HandleTransmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	transmissions := make([]CallDTO, 0)
	if a.tracker != nil {
		for _, c := range a.tracker.Log() {
			transmissions = append(transmissions, callDTO(c))
		}
	}
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"transmissions": transmissions,
		"total":         len(transmissions),
	}); err != nil {
		a.logger.Error("Failed to encode transmissions response", logger.Error(err))
	}
}

func callDTO(c *call.Call) CallDTO {
	dto := CallDTO{
		CallID:    c.CallID,
		SrcID:     c.SrcID,
		DstID:     c.DstID,
		PeerID:    c.PeerID,
		StartTime: c.StartTime.Unix(),
		Ended:     c.Ended,
		Packets:   c.Packets,
	}
	if c.Ended {
		dto.EndTime = c.EndTime.Unix()
	}
	return dto
}
