// internal/workers/matching/search-caregivers/query.go
package searchcaregivers

import "fmt"

// buildSearchBody filters active caregivers, optionally inside radiusKm of
// the family, nearest first. Without a location the most recently active
// caregivers come first.
func buildSearchBody(input *Input, radiusKm float64, size int) map[string]interface{} {
	filter := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"active": true}},
	}

	boolQuery := map[string]interface{}{"filter": filter}
	if len(input.ExcludeCaregiverIDs) > 0 {
		boolQuery["must_not"] = []interface{}{
			map[string]interface{}{"ids": map[string]interface{}{"values": input.ExcludeCaregiverIDs}},
		}
	}

	var sort []interface{}
	if input.Location != nil {
		point := map[string]interface{}{"lat": input.Location.Lat, "lon": input.Location.Lng}
		if radiusKm > 0 {
			boolQuery["filter"] = append(filter, map[string]interface{}{
				"geo_distance": map[string]interface{}{
					"distance": fmt.Sprintf("%gkm", radiusKm),
					"location": point,
				},
			})
		}
		sort = append(sort, map[string]interface{}{
			"_geo_distance": map[string]interface{}{
				"location": point,
				"order":    "asc",
				"unit":     "km",
			},
		})
	} else {
		sort = append(sort, map[string]interface{}{
			"last_active_at": map[string]interface{}{"order": "desc", "missing": "_last"},
		})
	}

	return map[string]interface{}{
		"size":    size,
		"_source": false,
		"query":   map[string]interface{}{"bool": boolQuery},
		"sort":    sort,
	}
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID   string        `json:"_id"`
			Sort []interface{} `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}
