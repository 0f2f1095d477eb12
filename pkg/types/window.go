package types

// WindowStatus is the state of the stabilization window.
// This struct is shared between the status server and client packages.
type WindowStatus struct {
	Cycle     int     `json:"cycle"`
	Window    []bool  `json:"window"`
	Tolerance float64 `json:"tolerance"`
	Stable    bool    `json:"stable"`
}
