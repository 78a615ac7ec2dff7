package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// simulate fires concurrent bookings for one slot against a running server
// and reports how many won. With the scheduled-slot uniqueness constraint in
// place, exactly one should succeed and the rest should see a 409.

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type doctorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "simulate").Logger()

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	workers := 10

	client := &http.Client{Timeout: 10 * time.Second}

	tokens := make([]string, workers)
	for i := range tokens {
		token, err := registerPatient(client, baseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("register patient")
		}
		tokens[i] = token
	}

	doctorID, err := pickDoctor(client, baseURL, tokens[0])
	if err != nil {
		logger.Fatal().Err(err).Msg("pick doctor")
	}

	slot := time.Now().AddDate(0, 0, 1)
	slot = time.Date(slot.Year(), slot.Month(), slot.Day(), 9, 0, 0, 0, time.Local)

	logger.Info().
		Str("doctor_id", doctorID).
		Time("slot", slot).
		Int("workers", workers).
		Msg("booking the same slot concurrently")

	var wg sync.WaitGroup
	statuses := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, err := book(client, baseURL, tokens[i], doctorID, slot)
			if err != nil {
				logger.Error().Err(err).Int("worker", i).Msg("booking request failed")
				return
			}
			statuses[i] = status
		}(i)
	}
	wg.Wait()

	var created, conflicts, other int
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			other++
		}
	}

	logger.Info().
		Int("created", created).
		Int("conflicts", conflicts).
		Int("other", other).
		Msg("simulation done")

	if created != 1 {
		logger.Fatal().Int("created", created).Msg("expected exactly one booking to win")
	}
}

func registerPatient(client *http.Client, baseURL string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"name":     "Sim Patient",
		"email":    fmt.Sprintf("sim-%s@example.com", uuid.NewString()[:8]),
		"password": "password123",
		"role":     "patient",
	})

	resp, err := client.Post(baseURL+"/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("register: unexpected status %d", resp.StatusCode)
	}

	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func pickDoctor(client *http.Client, baseURL, token string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/doctors", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("list doctors: unexpected status %d", resp.StatusCode)
	}

	var doctors []doctorResponse
	if err := json.NewDecoder(resp.Body).Decode(&doctors); err != nil {
		return "", err
	}
	if len(doctors) == 0 {
		return "", fmt.Errorf("no doctors found, run the seed tool first")
	}
	return doctors[0].ID, nil
}

func book(client *http.Client, baseURL, token, doctorID string, at time.Time) (int, error) {
	body, _ := json.Marshal(map[string]string{
		"doctor_id":             doctorID,
		"appointment_date_time": at.Format(time.RFC3339),
	})

	req, err := http.NewRequest(http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}
