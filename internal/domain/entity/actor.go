package entity

// ActorIdentity пользователь, от имени которого выполняется операция.
// Определяется один раз на запрос слоем аутентификации и явно передаётся в usecase.
type ActorIdentity struct {
	UserID int64
	Role   string
}

func NewActorIdentity(userID int64, role string) ActorIdentity {
	return ActorIdentity{UserID: userID, Role: role}
}

// Capability право пользователя, выдаваемое справочником пользователей.
type Capability string

const (
	CapabilityModerator Capability = "moderator"
	CapabilityStaff     Capability = "staff"
)

// Profile публичный профиль пользователя из справочника.
type Profile struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	DisplayName  string       `json:"display_name"`
	AvatarURL    *string      `json:"avatar_url,omitempty"`
	Capabilities []Capability `json:"-"`
}

// Can проверяет наличие права у профиля.
func (p *Profile) Can(c Capability) bool {
	if p == nil {
		return false
	}
	for _, have := range p.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

func IsModerator(p *Profile) bool {
	return p.Can(CapabilityModerator)
}
