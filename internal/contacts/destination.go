package contacts

import (
	"fmt"

	"github.com/angelmondragon/orders-backend/pkg/db/models"
	"github.com/angelmondragon/orders-backend/pkg/enums"
)

// Destination is where a confirmation is delivered. It is either an Email or a Phone.
type Destination interface {
	Channel() enums.NotificationChannel
	Value() string
}

type Email struct{ Address string }

func (e Email) Channel() enums.NotificationChannel { return enums.ChannelEmail }
func (e Email) Value() string                      { return e.Address }

type Phone struct{ Number string }

func (p Phone) Channel() enums.NotificationChannel { return enums.ChannelSMS }
func (p Phone) Value() string                      { return p.Number }

// DestinationOf maps a stored contact onto its delivery variant.
func DestinationOf(c models.Contact) (Destination, error) {
	switch c.Type {
	case enums.ContactTypeEmail:
		return Email{Address: c.Value}, nil
	case enums.ContactTypePhone:
		return Phone{Number: c.Value}, nil
	default:
		return nil, fmt.Errorf("contact %s has unknown type %q", c.ID, c.Type)
	}
}
