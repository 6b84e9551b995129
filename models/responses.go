// path: models/responses.go
package models

// LocateRequest is the request body for POST /api/locate.
type LocateRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocateResponse is the response body for POST /api/locate.
type LocateResponse struct {
	OK        bool   `json:"ok"`
	AreaLabel string `json:"area_label"`
	City      string `json:"city,omitempty"`
	Region    string `json:"region,omitempty"`
	Country   string `json:"country,omitempty"`
}

type CreateReportResp struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

type CleanupResp struct {
	OK            bool        `json:"ok"`
	Report        WasteReport `json:"report"`
	PointsAwarded int         `json:"points_awarded"`
}

// CreateAccountPayload is the JSON body for POST /api/users.
type CreateAccountPayload struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

type ReportListResp struct {
	OK         bool          `json:"ok"`
	Items      []WasteReport `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type CleanedListResp struct {
	OK    bool            `json:"ok"`
	Items []CleanedReport `json:"items"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
	Cleaned  int64  `json:"cleaned"`
}

type LeaderboardResp struct {
	OK    bool               `json:"ok"`
	Items []LeaderboardEntry `json:"items"`
}
