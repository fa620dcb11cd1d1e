package medicine

// Pagination is the shared page envelope returned by list endpoints.
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalCount      int  `json:"totalCount"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	Limit           int  `json:"limit"`
}

// Medicine is the full catalogue record.
type Medicine struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	DosageForm  string  `json:"dosageForm"`
	Size        string  `json:"size"`
	Stock       int     `json:"stock"`
	Recommended bool    `json:"recommended"`
	Image       *string `json:"image"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// Basic is the reduced record embedded in carts and requests.
type Basic struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Brand string  `json:"brand"`
	Image *string `json:"image"`
	Stock int     `json:"stock"`
}

type SearchParams struct {
	Query string
	Name  string
	Brand string
	Page  int
	Limit int
}

type SearchResponse struct {
	Medicines  []Medicine `json:"medicines"`
	Pagination Pagination `json:"pagination"`
}

type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type CategoriesResponse struct {
	Categories []Category `json:"categories"`
}

// RequestItem is one medicine line in a request.
type RequestItem struct {
	MedicineID int64 `json:"medicineId"`
	Quantity   int   `json:"quantity"`
}

type CreateRequestData struct {
	UserID    int64         `json:"userId"`
	Reason    string        `json:"reason"`
	Medicines []RequestItem `json:"medicines"`
}

// RequestStatus is the server-side request lifecycle state.
type RequestStatus string

const (
	RequestRequested RequestStatus = "REQUESTED"
	RequestGiven     RequestStatus = "GIVEN"
	RequestCancelled RequestStatus = "CANCELLED"
)

type Request struct {
	ID          string        `json:"id"`
	UserID      int64         `json:"userId"`
	Reason      string        `json:"reason"`
	Status      RequestStatus `json:"status"`
	RequestedAt *string       `json:"requestedAt"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
}

type RequestedMedicine struct {
	ID         string `json:"id"`
	MedicineID int64  `json:"medicineId"`
	Quantity   int    `json:"quantity"`
	Medicine   Basic  `json:"medicine"`
}

type CreateRequestResponse struct {
	Message       string              `json:"message"`
	Request       Request             `json:"request"`
	Medicines     []RequestedMedicine `json:"medicines"`
	TotalRequests int                 `json:"totalRequests"`
}

// StockError describes one line that could not be fulfilled.
type StockError struct {
	MedicineID        int64  `json:"medicineId"`
	MedicineName      string `json:"medicineName"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableStock    int    `json:"availableStock"`
}

// LimitCounts is the raw quota endpoint payload; the permission engine
// derives the displayed snapshot from it.
type LimitCounts struct {
	CurrentCount  int `json:"currentCount"`
	ApprovedCount int `json:"approvedCount"`
}
