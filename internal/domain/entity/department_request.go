package entity

// RequestLine línea de una solicitud departamental aprobada.
type RequestLine struct {
	ItemID   string
	Quantity int64
	Purpose  string
}

// ApprovedRequest intención de salida producida por el flujo de aprobación de solicitudes.
// RequestNumber se usa como referencia de los movimientos.
type ApprovedRequest struct {
	RequestNumber string
	Department    string
	RequestedBy   string
	ApprovedBy    string
	Lines         []RequestLine
}
