package dto

import "github.com/ignatzorin/freelance-orders/internal/domain/entity"

// ProfileResponse краткий профиль участника. nil сериализуется в null,
// если справочник пользователей не ответил.
type ProfileResponse struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

func ToProfileResponse(p *entity.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
	}
}
