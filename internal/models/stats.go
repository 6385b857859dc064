package models

// StoreStats holds record counts reported by the statistics job
type StoreStats struct {
	Users      int64 `json:"users"`
	Worlds     int64 `json:"worlds"`
	Characters int64 `json:"characters"`
	Locations  int64 `json:"locations"`
	Events     int64 `json:"events"`
}
