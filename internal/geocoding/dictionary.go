package geocoding

import "github.com/ripinlibinus/rag-property-assistant/internal/property"

// DefaultDictionary seeds the landmark lookup for the target city (Medan),
// matching the exact fixture used by spec §8 scenario 3 (USU -> (3.5656,
// 98.6565)). Operators extend this per-deployment; it is not meant to be
// exhaustive.
func DefaultDictionary() map[string]property.LatLng {
	return map[string]property.LatLng{
		"usu":              {Lat: 3.5656, Lng: 98.6565},
		"universitas sumatera utara": {Lat: 3.5656, Lng: 98.6565},
		"sun plaza":        {Lat: 3.5897, Lng: 98.6737},
		"rs adam malik":    {Lat: 3.5616, Lng: 98.6525},
		"kawasan industri medan": {Lat: 3.6896, Lng: 98.7103},
	}
}
