package services

import (
	"net/http"
	"net/url"

	"github.com/axellelanca/afltracker/internal/tracking"
)

// ClickRequest carries what the pipeline needs from an inbound click.
type ClickRequest struct {
	IP             string
	UserAgent      string
	Referrer       string
	AcceptLanguage string
	AcceptEncoding string
	Country        string
	City           string
	Query          url.Values

	Device      tracking.DeviceInfo
	Fingerprint string
}

// NewClickRequest extracts device, geo and fingerprint data from the request headers.
// Country comes from the CDN header CF-IPCountry and defaults to "XX".
func NewClickRequest(ip string, header http.Header, query url.Values) *ClickRequest {
	req := &ClickRequest{
		IP:             ip,
		UserAgent:      header.Get("User-Agent"),
		Referrer:       header.Get("Referer"),
		AcceptLanguage: header.Get("Accept-Language"),
		AcceptEncoding: header.Get("Accept-Encoding"),
		Country:        header.Get("CF-IPCountry"),
		City:           header.Get("CF-IPCity"),
		Query:          query,
	}
	if req.Country == "" {
		req.Country = "XX"
	}
	if req.Query == nil {
		req.Query = url.Values{}
	}
	req.Device = tracking.ParseUserAgent(req.UserAgent)
	req.Fingerprint = tracking.Fingerprint(req.IP, req.Device, req.AcceptLanguage, req.AcceptEncoding)
	return req
}
