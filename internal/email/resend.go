// Package email delivers transactional mail through the Resend HTTP API.
package email

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrEmailNotConfigured = errors.New("email service not configured")
	ErrSendFailed         = errors.New("failed to send email")
)

type Client struct {
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewClient(apiKey, from string) *Client {
	return &Client{
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) IsConfigured() bool {
	return c.apiKey != "" && c.from != ""
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers a single message, best effort, no retries.
func (c *Client) Send(to, subject, htmlContent string) error {
	if !c.IsConfigured() {
		return ErrEmailNotConfigured
	}

	reqBody := sendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlContent,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: status code %d", ErrSendFailed, resp.StatusCode)
	}
	return nil
}

// SendOTP delivers the email verification code with the user's display name
// interpolated into the fixed template.
func (c *Client) SendOTP(to, code, username string) error {
	subject := "AstraPilot - Email Verification Code"

	htmlContent := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f4f4;">
    <table role="presentation" style="width: 100%%; border-collapse: collapse;">
        <tr>
            <td align="center" style="padding: 40px 0;">
                <table role="presentation" style="width: 600px; border-collapse: collapse; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
                    <tr>
                        <td style="padding: 40px 40px 20px 40px; text-align: center;">
                            <h1 style="margin: 0; color: #333333; font-size: 24px; font-weight: 600;">Welcome to AstraPilot</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 0 40px 20px 40px; text-align: center;">
                            <p style="margin: 0; color: #666666; font-size: 16px; line-height: 1.5;">Hello %s, please use the following verification code to complete your registration:</p>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 20px 40px; text-align: center;">
                            <div style="display: inline-block; background-color: #f8f9fa; border: 2px dashed #dee2e6; border-radius: 8px; padding: 20px 40px;">
                                <span style="font-size: 32px; font-weight: bold; letter-spacing: 8px; color: #007bff;">%s</span>
                            </div>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 20px 40px 40px 40px; text-align: center;">
                            <p style="margin: 0; color: #999999; font-size: 14px;">This code will expire in 10 minutes. Do not share it with anyone.</p>
                            <p style="margin: 10px 0 0 0; color: #999999; font-size: 14px;">If you didn't request this code, please ignore this email.</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`, subject, username, code)

	return c.Send(to, subject, htmlContent)
}
