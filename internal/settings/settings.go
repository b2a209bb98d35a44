// Package settings holds the user-configurable notification preferences.
package settings

// Frequency is the minimum gap between simulated order notifications.
type Frequency string

const (
	FrequencyRealtime Frequency = "realtime"
	Frequency5Min     Frequency = "5min"
	Frequency15Min    Frequency = "15min"
	Frequency30Min    Frequency = "30min"
	FrequencyHourly   Frequency = "hourly"
	FrequencyDaily    Frequency = "daily"
)

// Settings is the full preference record.
//
// MaxNotifications is an advisory daily cap: it is persisted and editable but
// not enforced anywhere (matching the app this simulates).
type Settings struct {
	Frequency         Frequency `json:"frequency"`
	MaxNotifications  int       `json:"maxNotifications"`
	MinOrderAmount    float64   `json:"minOrderAmount"`
	Enabled           bool      `json:"enabled"`
	StoreName         string    `json:"storeName"`
	NotificationTitle string    `json:"notificationTitle"`
	NotificationBody  string    `json:"notificationBody"`
	NotificationColor string    `json:"notificationColor"`
	CustomLogo        string    `json:"customLogo,omitempty"`
}

// Defaults returns the first-run settings record.
func Defaults() Settings {
	return Settings{
		Frequency:         Frequency15Min,
		MaxNotifications:  10,
		MinOrderAmount:    0,
		Enabled:           true,
		StoreName:         "Your Store",
		NotificationTitle: "New Order",
		NotificationBody:  "[STORE_NAME] You have a new order for [ITEMS] items totaling $[AMOUNT] from Online Store.",
		NotificationColor: "#5E8B7E",
		CustomLogo:        "",
	}
}

// Patch is a partial settings update. Nil fields are left untouched.
type Patch struct {
	Frequency         *Frequency `json:"frequency,omitempty"`
	MaxNotifications  *int       `json:"maxNotifications,omitempty"`
	MinOrderAmount    *float64   `json:"minOrderAmount,omitempty"`
	Enabled           *bool      `json:"enabled,omitempty"`
	StoreName         *string    `json:"storeName,omitempty"`
	NotificationTitle *string    `json:"notificationTitle,omitempty"`
	NotificationBody  *string    `json:"notificationBody,omitempty"`
	NotificationColor *string    `json:"notificationColor,omitempty"`
	CustomLogo        *string    `json:"customLogo,omitempty"`
}

func (p Patch) apply(s Settings) Settings {
	if p.Frequency != nil {
		s.Frequency = *p.Frequency
	}
	if p.MaxNotifications != nil {
		s.MaxNotifications = *p.MaxNotifications
	}
	if p.MinOrderAmount != nil {
		s.MinOrderAmount = *p.MinOrderAmount
	}
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.StoreName != nil {
		s.StoreName = *p.StoreName
	}
	if p.NotificationTitle != nil {
		s.NotificationTitle = *p.NotificationTitle
	}
	if p.NotificationBody != nil {
		s.NotificationBody = *p.NotificationBody
	}
	if p.NotificationColor != nil {
		s.NotificationColor = *p.NotificationColor
	}
	if p.CustomLogo != nil {
		s.CustomLogo = *p.CustomLogo
	}
	return s
}
