package listing

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/agora/internal/apperror"
)

// Params are the paging and ordering query parameters every listing accepts.
type Params struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Skip  int    `json:"skip"`
	Sort  string `json:"sort"`
}

// Bind reads page, limit, skip and sort from the query string. Missing
// numbers fall back to the database defaults; malformed ones are a 400, as is
// a page or skip whose offset would overflow. Limits above
// database.MaxLimit are capped.
func Bind(r *http.Request) (Params, error) {
	params := Params{
		Sort: strings.TrimSpace(r.URL.Query().Get("sort")),
	}

	for key, target := range map[string]*int{
		"page":  &params.Page,
		"limit": &params.Limit,
		"skip":  &params.Skip,
	} {
		value, err := Int(r, key)
		if err != nil {
			return Params{}, err
		}

		if value != nil {
			*target = *value
		}
	}

	if err := params.PageRequest().Validate(); err != nil {
		return Params{}, apperror.InvalidPage(err)
	}

	return params, nil
}

func (params Params) PageRequest() database.PageRequest {
	return database.PageRequest{
		Page:  params.Page,
		Limit: params.Limit,
		Skip:  params.Skip,
	}.Normalized()
}

// String is the trimmed query value of key, nil when absent or blank.
func String(r *http.Request, key string) *string {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return nil
	}

	return &value
}

func Lower(value *string) *string {
	if value == nil {
		return nil
	}

	lowered := strings.ToLower(*value)

	return &lowered
}

func Int(r *http.Request, key string) (*int, error) {
	raw := String(r, key)
	if raw == nil {
		return nil, nil
	}

	value, err := strconv.Atoi(*raw)
	if err != nil {
		return nil, apperror.BadRequest("Invalid query parameter", err).
			WithDetail(fmt.Sprintf("%s must be an integer", key))
	}

	return &value, nil
}
