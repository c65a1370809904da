package models

// Settings is the operator-configured document pushed over the settings channel.
// The full document replaces the previous one on every snapshot.
type Settings struct {
	Refreshed int64 `json:"refreshed" firestore:"refreshed"` // ms epoch of last upstream data refresh
	Paused    bool  `json:"paused" firestore:"paused"`       // suppress scheduled refreshes
}
