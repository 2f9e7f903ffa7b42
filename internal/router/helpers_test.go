package router

import "gnosislens-api/internal/model"

func sessionFor(userID string) model.SessionData {
	return model.SessionData{UserID: userID, Username: userID, DisplayName: userID, HomeCurrency: "USD"}
}
