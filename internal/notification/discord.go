package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/RezJalali/Heat-Island-Detection-using-Landsat-8-9/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

const (
	colorRed   = 16711680
	colorGreen = 65280
)

// SendDiscordErrorNotification is a no-op when no webhook is configured.
func SendDiscordErrorNotification(errorMessage string) error {
	return sendDiscordMessage(properties.DiscordErrorNotificationUrl(), DiscordEmbed{
		Title:       "🚨 Error Notification",
		Description: fmt.Sprintf("LST map run failed.\n\nAn error occurred: %s", errorMessage),
		Color:       colorRed,
	})
}

// SendDiscordSuccessNotification is a no-op when no webhook is configured.
func SendDiscordSuccessNotification(successMessage string) error {
	return sendDiscordMessage(properties.DiscordSuccessNotificationUrl(), DiscordEmbed{
		Title:       "✅ Success Notification",
		Description: successMessage,
		Color:       colorGreen,
	})
}

func sendDiscordMessage(url string, embed DiscordEmbed) error {
	if url == "" {
		return nil
	}
	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}
