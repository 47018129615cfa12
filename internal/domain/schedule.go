package domain

// Schedule is the structured result parsed out of the solver's stdout.
// JSON names follow what the scheduling frontend already consumes.
type Schedule struct {
	SceneOrder      []int       `json:"orden_escenas"`
	TotalCost       int         `json:"costo_total"`
	SharedAvoidTime *int        `json:"tiempo_compartido_actores_evitar,omitempty"`
	ActorBreakdown  []ActorCost `json:"detalles_por_actor"`
}

// ActorCost is the per-actor slice of the total cost.
type ActorCost struct {
	Name       string `json:"nombre"`
	FirstScene int    `json:"rango_escenas_inicio"`
	LastScene  int    `json:"rango_escenas_fin"`
	Cost       int    `json:"costo"`
	StudioTime *int   `json:"tiempo_en_estudio,omitempty"`
}
