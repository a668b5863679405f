package tracking

import (
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/axellelanca/afltracker/internal/models"
)

// ExtractTrackingParams reads ad-network click ids, UTM fields and the
// external click id from the click URL query. Missing values are "".
func ExtractTrackingParams(q url.Values) models.TrackingParams {
	return models.TrackingParams{
		Gclid:         q.Get("gclid"),
		GadSource:     q.Get("gad_source"),
		GadCampaignID: q.Get("campaignid"),
		Gbraid:        q.Get("gbraid"),
		Wbraid:        q.Get("wbraid"),
		Fbclid:        q.Get("fbclid"),
		FbAdID:        q.Get("ad_id"),
		FbCampaignID:  q.Get("campaign_id"),
		Msclkid:       q.Get("msclkid"),
		Ttclid:        q.Get("ttclid"),
		UTMSource:     q.Get("utm_source"),
		UTMMedium:     q.Get("utm_medium"),
		UTMCampaign:   q.Get("utm_campaign"),
		UTMTerm:       q.Get("utm_term"),
		UTMContent:    q.Get("utm_content"),
		ExternalID:    firstNonEmpty(q.Get("external_id"), q.Get("clickid")),
	}
}

// CustomVars returns the five custom slots, v1..v5 taking precedence over custom1..custom5.
func CustomVars(q url.Values) [5]string {
	var vars [5]string
	names := [5][2]string{
		{"v1", "custom1"}, {"v2", "custom2"}, {"v3", "custom3"}, {"v4", "custom4"}, {"v5", "custom5"},
	}
	for i, n := range names {
		vars[i] = firstNonEmpty(q.Get(n[0]), q.Get(n[1]))
	}
	return vars
}

// RawQueryJSON serializes every received query parameter. Repeated
// parameters become arrays, single ones plain strings.
func RawQueryJSON(q url.Values) string {
	out := make(map[string]interface{}, len(q))
	for k, vs := range q {
		if len(vs) == 1 {
			out[k] = vs[0]
		} else {
			out[k] = vs
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
