package dto

// RequestLineDTO línea de una solicitud departamental.
type RequestLineDTO struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
	Purpose  string `json:"purpose"`
}

// ApprovedRequestDTO solicitud aprobada (HTTP y mensajes de la cola).
type ApprovedRequestDTO struct {
	RequestNumber string           `json:"request_number"`
	Department    string           `json:"department"`
	RequestedBy   string           `json:"requested_by"`
	ApprovedBy    string           `json:"approved_by"`
	Items         []RequestLineDTO `json:"items"`
}

// Estados del resultado de despacho publicados en la cola de resultados.
const (
	RequestStateFulfilled = "fulfilled"
	RequestStateRejected  = "rejected"
	RequestStateFailed    = "failed"
)

// RequestResultDTO resultado del despacho de una solicitud.
type RequestResultDTO struct {
	RequestNumber string   `json:"request_number"`
	State         string   `json:"state"`
	Reason        string   `json:"reason,omitempty"`
	Line          int      `json:"line,omitempty"`
	MovementIDs   []string `json:"movement_ids,omitempty"`
}
