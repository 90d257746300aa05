package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
	sdto "github.com/radieske/racebet-wagering-poc/internal/wager-service/settlement/dto"
)

// ErrRejected indica que o tote recusou o bilhete (não é falha de transporte)
var ErrRejected = errors.New("settlement rejected")

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Place envia a seleção à liquidação e devolve os números oficiais do bilhete
func (c *Client) Place(ctx context.Context, userID string, sel wager.Selection, units int) (wager.Settled, error) {
	body, err := json.Marshal(sdto.PlaceRequest{
		RequestID: uuid.NewString(),
		UserID:    userID,
		BetType:   sel.BetType.String(),
		RaceID:    sel.RaceID,
		Units:     units,
		Selection: wager.SettlementPayload(sel),
	})
	if err != nil {
		return wager.Settled{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/settlement/place", bytes.NewReader(body))
	if err != nil {
		return wager.Settled{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return wager.Settled{}, fmt.Errorf("settlement request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return wager.Settled{}, fmt.Errorf("settlement http %d", res.StatusCode)
	}

	var out sdto.PlaceResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return wager.Settled{}, fmt.Errorf("decode settlement response: %w", err)
	}
	if out.Status != sdto.StatusAccepted {
		return wager.Settled{}, fmt.Errorf("%w: %s", ErrRejected, out.Reason)
	}
	if out.TicketID == "" || out.Combos < 1 || out.Units < 1 {
		return wager.Settled{}, fmt.Errorf("settlement response incomplete: %+v", out)
	}

	return wager.Settled{
		TicketID: out.TicketID,
		Combos:   out.Combos,
		UnitCost: wager.Money(out.UnitCost),
		Units:    out.Units,
		Amount:   wager.Money(out.Amount),
	}, nil
}
