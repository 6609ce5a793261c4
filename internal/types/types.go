// README: Common identifier and coordinate value types used across modules.
package types

type ID string

// Point is a WGS84 coordinate pair. It has no identity beyond its values.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
