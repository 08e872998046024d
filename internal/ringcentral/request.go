package ringcentral

import (
	"net/url"
	"strconv"

	"github.com/rc-tools/rccalllog/internal/models"
)

// CallLogPath is the account-level call-log resource.
const CallLogPath = "/restapi/v1.0/account/~/call-log"

// TokenPath is the OAuth token endpoint.
const TokenPath = "/restapi/oauth/token"

// RecordingType narrows results by how a call was recorded.
type RecordingType string

const (
	RecordingAll       RecordingType = "All"
	RecordingAutomatic RecordingType = "Automatic"
	RecordingOnDemand  RecordingType = "OnDemand"
)

// ListCallLogRequest is one page request against the call-log resource.
// When PageToken is set it wins and every other field is ignored: the token
// already carries the original filters.
type ListCallLogRequest struct {
	Query         models.CallLogQuery
	RecordingType RecordingType
	PerPage       int
	PageToken     string
}

// NewListCallLogRequest returns the first-page request for q.
func NewListCallLogRequest(q models.CallLogQuery, perPage int) ListCallLogRequest {
	return ListCallLogRequest{
		Query:         q,
		RecordingType: RecordingAll,
		PerPage:       perPage,
	}
}

// WithPageToken returns a copy of r that requests the page behind token.
func (r ListCallLogRequest) WithPageToken(token string) ListCallLogRequest {
	r.PageToken = token
	return r
}

// Values encodes the query parameters of a first-page request.
func (r ListCallLogRequest) Values() url.Values {
	v := url.Values{}
	view := r.Query.View
	if view == "" {
		view = models.ViewSimple
	}
	v.Set("view", string(view))
	if !r.Query.DateFrom.IsZero() {
		v.Set("dateFrom", models.FormatTimestamp(r.Query.DateFrom))
	}
	if !r.Query.DateTo.IsZero() {
		v.Set("dateTo", models.FormatTimestamp(r.Query.DateTo))
	}
	if r.Query.PhoneNumber != "" {
		v.Set("phoneNumber", r.Query.PhoneNumber)
	}
	if r.RecordingType != "" {
		v.Set("recordingType", string(r.RecordingType))
	}
	if r.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(r.PerPage))
	}
	v.Set("page", "1")
	return v
}

// callLogResponse is the wire shape of a call-log page.
type callLogResponse struct {
	URI     string                 `json:"uri"`
	Records []models.CallLogRecord `json:"records"`
	Paging  struct {
		Page    int `json:"page"`
		PerPage int `json:"perPage"`
	} `json:"paging"`
	Navigation struct {
		NextPage *struct {
			URI string `json:"uri"`
		} `json:"nextPage"`
	} `json:"navigation"`
}

func (r *callLogResponse) page() *models.Page {
	p := &models.Page{
		Number:  r.Paging.Page,
		Records: r.Records,
	}
	if r.Navigation.NextPage != nil {
		p.NextToken = r.Navigation.NextPage.URI
	}
	return p
}
