package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
)

// HTTPResolver клиент внешнего справочника пользователей.
// Исходящие запросы ограничены по частоте, чтобы не положить справочник при всплеске.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPResolver(baseURL string, rps float64, timeout time.Duration) *HTTPResolver {
	if rps <= 0 {
		rps = 50
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

var _ gateway.ProfileResolver = (*HTTPResolver)(nil)

func (r *HTTPResolver) GetUser(ctx context.Context, id int64) (*entity.Profile, error) {
	var dto profileDTO
	found, err := r.get(ctx, fmt.Sprintf("%s/users/%d", r.baseURL, id), &dto)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, gateway.ErrProfileNotFound
	}
	return dto.toEntity(), nil
}

func (r *HTTPResolver) GetUsersBatch(ctx context.Context, ids []int64) ([]*entity.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	query := url.Values{"ids": {strings.Join(parts, ",")}}

	var dtos []profileDTO
	if _, err := r.get(ctx, r.baseURL+"/users?"+query.Encode(), &dtos); err != nil {
		return nil, err
	}
	profiles := make([]*entity.Profile, 0, len(dtos))
	for _, d := range dtos {
		profiles = append(profiles, d.toEntity())
	}
	return profiles, nil
}

// get возвращает found=false на 404.
func (r *HTTPResolver) get(ctx context.Context, endpoint string, dest interface{}) (bool, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("user directory: rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("user directory: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("user directory: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("user directory: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return false, fmt.Errorf("user directory: decode: %w", err)
	}
	return true, nil
}
