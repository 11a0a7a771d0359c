package geo

import "math"

// EarthRadiusKm is Earth's radius in kilometers for Haversine calculation.
const EarthRadiusKm = 6371.0

// HaversineKm calculates the great-circle distance between two points
// on Earth in kilometers using the Haversine formula.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// TripKm is the straight-line trip length for a volunteer starting at
// (volLat, volLng): volunteer to pickup plus pickup to drop-off.
func TripKm(volLat, volLng, pickupLat, pickupLng, dropLat, dropLng float64) float64 {
	return HaversineKm(volLat, volLng, pickupLat, pickupLng) + HaversineKm(pickupLat, pickupLng, dropLat, dropLng)
}
