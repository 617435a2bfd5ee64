package handlers

import (
	"encoding/json"
	"net/http"
)

func queryParam(name, description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

var paginationParams = []map[string]interface{}{
	queryParam("page", "Page number (default: 1)", map[string]interface{}{"type": "integer", "default": 1}),
	queryParam("limit", "Records per page (default: 100, max: 1000)", map[string]interface{}{"type": "integer", "default": 100}),
}

var dateParams = []map[string]interface{}{
	queryParam("start_date", "Filter by first month (YYYY-MM-DD)", map[string]interface{}{"type": "string", "format": "date"}),
	queryParam("end_date", "Filter by last month (YYYY-MM-DD)", map[string]interface{}{"type": "string", "format": "date"}),
}

func nullableNumber() map[string]interface{} {
	return map[string]interface{}{"type": "number", "nullable": true}
}

func jsonResponse(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

func paginatedSchema(item map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"data":        map[string]interface{}{"type": "array", "items": item},
			"total":       map[string]string{"type": "integer"},
			"page":        map[string]string{"type": "integer"},
			"limit":       map[string]string{"type": "integer"},
			"total_pages": map[string]string{"type": "integer"},
		},
	}
}

func object(properties map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": properties}
}

var (
	monthlySchema = object(map[string]interface{}{
		"date":         map[string]string{"type": "string", "format": "date-time"},
		"year":         map[string]string{"type": "integer"},
		"month":        map[string]string{"type": "integer"},
		"co2":          map[string]string{"type": "number"},
		"co2_adjusted": nullableNumber(),
		"co2_fit":      nullableNumber(),
	})

	decompositionSchema = object(map[string]interface{}{
		"date":           map[string]string{"type": "string", "format": "date-time"},
		"observed":       map[string]string{"type": "number"},
		"trend":          nullableNumber(),
		"seasonal":       nullableNumber(),
		"residual":       nullableNumber(),
		"detrended":      nullableNumber(),
		"deseasonalized": nullableNumber(),
	})

	annualSchema = object(map[string]interface{}{
		"year":                map[string]string{"type": "integer"},
		"co2":                 map[string]string{"type": "number"},
		"growth_rate":         nullableNumber(),
		"acceleration":        nullableNumber(),
		"growth_rate_smooth":  nullableNumber(),
		"acceleration_smooth": nullableNumber(),
	})

	decadeSchema = object(map[string]interface{}{
		"decade":      map[string]string{"type": "integer"},
		"co2_mean":    map[string]string{"type": "number"},
		"co2_min":     map[string]string{"type": "number"},
		"co2_max":     map[string]string{"type": "number"},
		"growth_mean": nullableNumber(),
		"growth_std":  nullableNumber(),
	})

	errorSchema = object(map[string]interface{}{
		"error":   map[string]string{"type": "string"},
		"message": map[string]string{"type": "string"},
		"code":    map[string]string{"type": "integer"},
	})
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Keeling Curve API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Keeling Curve API",
			"description": "Mauna Loa atmospheric CO2 record: clean monthly series, decomposition, growth and decade statistics",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/co2/monthly": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get monthly CO2 records",
					"description": "Retrieve the clean monthly series with date filtering and pagination",
					"parameters":  append(append([]map[string]interface{}{}, dateParams...), paginationParams...),
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", paginatedSchema(monthlySchema)),
						"400": jsonResponse("Invalid date", errorSchema),
					},
				},
			},
			"/api/co2/decomposition": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get seasonal decomposition",
					"description": "Retrieve trend, seasonal and residual components per month",
					"parameters":  append(append([]map[string]interface{}{}, dateParams...), paginationParams...),
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", paginatedSchema(decompositionSchema)),
						"400": jsonResponse("Invalid date", errorSchema),
					},
				},
			},
			"/api/co2/annual": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get annual growth rates",
					"description": "Retrieve annual means, growth rates and accelerations",
					"parameters": append([]map[string]interface{}{
						queryParam("start_year", "First year", map[string]interface{}{"type": "integer"}),
						queryParam("end_year", "Last year", map[string]interface{}{"type": "integer"}),
					}, paginationParams...),
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", paginatedSchema(annualSchema)),
						"400": jsonResponse("Invalid year", errorSchema),
					},
				},
			},
			"/api/co2/annual/{year}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Get one year",
					"parameters": []map[string]interface{}{
						{
							"name":     "year",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "integer"},
						},
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", annualSchema),
						"404": jsonResponse("Year not stored", errorSchema),
					},
				},
			},
			"/api/co2/decades": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get decade summaries",
					"description": "Retrieve per-decade concentration and growth statistics",
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", object(map[string]interface{}{
							"data":  map[string]interface{}{"type": "array", "items": decadeSchema},
							"total": map[string]string{"type": "integer"},
						})),
					},
				},
			},
			"/dashboard": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Interactive dashboard",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Self-contained HTML dashboard",
							"content": map[string]interface{}{
								"text/html": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
						"404": jsonResponse("Dashboard not generated", errorSchema),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": jsonResponse("Store reachable", object(map[string]interface{}{
							"status":    map[string]string{"type": "string"},
							"timestamp": map[string]string{"type": "string", "format": "date-time"},
						})),
						"503": jsonResponse("Store unreachable", object(map[string]interface{}{
							"status": map[string]string{"type": "string"},
							"error":  map[string]string{"type": "string"},
						})),
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
