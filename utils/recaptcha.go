package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type CaptchaResponse struct {
	Success     bool     `json:"success"`
	ChallengeTs string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

var captchaClient = &http.Client{Timeout: 5 * time.Second}

// VerifyCaptcha checks a reCAPTCHA token against the Google verification
// endpoint. Callers wrap it in a circuit breaker; a non-nil error here counts
// as a breaker failure.
func VerifyCaptcha(secret, token string) error {
	data := url.Values{}
	data.Set("secret", secret)
	data.Set("response", token)

	resp, err := captchaClient.PostForm("https://www.google.com/recaptcha/api/siteverify", data)
	if err != nil {
		return fmt.Errorf("error sending request to Google API: %v", err)
	}
	defer resp.Body.Close()

	var captchaResp CaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&captchaResp); err != nil {
		return fmt.Errorf("error decoding Google API response: %v", err)
	}

	if !captchaResp.Success {
		return fmt.Errorf("captcha rejected: %v", captchaResp.ErrorCodes)
	}
	return nil
}
