package application

import (
	"fmt"

	"github.com/bnema/moonbix-cli/internal/domain"
)

const socialTypeTelegram = "telegram"

type loginRequest struct {
	QueryString string `json:"queryString"`
	SocialType  string `json:"socialType"`
}

type resourceRequest struct {
	ResourceID int `json:"resourceId"`
}

type taskCompleteRequest struct {
	ResourceIDList []int   `json:"resourceIdList"`
	ReferralCode   *string `json:"referralCode"`
}

type gameCompleteRequest struct {
	ResourceID int    `json:"resourceId"`
	Payload    string `json:"payload"`
	Log        int    `json:"log"`
}

func gameResource() resourceRequest {
	return resourceRequest{ResourceID: domain.GameResourceID}
}

func formatAttempt(attempt, total int) string {
	return fmt.Sprintf("%d/%d", attempt, total)
}
