// Package profile реализации справочника пользователей: HTTP-клиент внешнего сервиса,
// чтение из таблицы users и кэш в Redis поверх любого из них.
package profile

import (
	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
)

// profileDTO формат профиля в ответах справочника и в кэше.
type profileDTO struct {
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	DisplayName  string   `json:"display_name"`
	AvatarURL    *string  `json:"avatar_url,omitempty"`
	Capabilities []string `json:"capabilities"`
}

func (d profileDTO) toEntity() *entity.Profile {
	caps := make([]entity.Capability, 0, len(d.Capabilities))
	for _, c := range d.Capabilities {
		caps = append(caps, entity.Capability(c))
	}
	return &entity.Profile{
		ID:           d.ID,
		Username:     d.Username,
		DisplayName:  d.DisplayName,
		AvatarURL:    d.AvatarURL,
		Capabilities: caps,
	}
}

func fromEntity(p *entity.Profile) profileDTO {
	caps := make([]string, 0, len(p.Capabilities))
	for _, c := range p.Capabilities {
		caps = append(caps, string(c))
	}
	return profileDTO{
		ID:           p.ID,
		Username:     p.Username,
		DisplayName:  p.DisplayName,
		AvatarURL:    p.AvatarURL,
		Capabilities: caps,
	}
}
