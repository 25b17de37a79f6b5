package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleRoundTrip(t *testing.T) {
	original := Vehicle{
		ID:       "64f1c2",
		Make:     "Toyota",
		CarModel: "Corolla",
		Year:     2019,
		Mileage:  85000,
		Owner:    "user-1",
		ImageURL: "https://example.com/corolla.jpg",
		Engine:   "1.8L",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Vehicle
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestVehicleRoundTripWithoutOptionalFields(t *testing.T) {
	original := Vehicle{
		ID:       "64f1c3",
		Make:     "Honda",
		CarModel: "Civic",
		Year:     2021,
		Mileage:  12000,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	// 可选字段不应出现在编码结果里
	assert.NotContains(t, string(data), "engine")
	assert.NotContains(t, string(data), "imageUrl")

	var decoded Vehicle
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestVehicleDecodeMissingRequiredField(t *testing.T) {
	cases := map[string]string{
		"missing _id":      `{"make":"Toyota","carModel":"Corolla","year":2019,"mileage":85000}`,
		"missing make":     `{"_id":"a","carModel":"Corolla","year":2019,"mileage":85000}`,
		"missing carModel": `{"_id":"a","make":"Toyota","year":2019,"mileage":85000}`,
		"missing year":     `{"_id":"a","make":"Toyota","carModel":"Corolla","mileage":85000}`,
		"missing mileage":  `{"_id":"a","make":"Toyota","carModel":"Corolla","year":2019}`,
		"wrong year type":  `{"_id":"a","make":"Toyota","carModel":"Corolla","year":"2019","mileage":85000}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			var v Vehicle
			assert.Error(t, json.Unmarshal([]byte(payload), &v))
		})
	}
}

func TestTaskDecode(t *testing.T) {
	payload := `{"_id":"t1","carId":"c1","task":"Oil Change","dueDate":"2025-01-01T00:00:00Z","nextMileage":95000,"status":"Pending"}`

	var task MaintenanceTask
	require.NoError(t, json.Unmarshal([]byte(payload), &task))

	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, "c1", task.CarID)
	assert.Equal(t, "Oil Change", task.Task)
	assert.Equal(t, "2025-01-01T00:00:00Z", task.DueDate)
	require.NotNil(t, task.NextMileage)
	assert.Equal(t, 95000, *task.NextMileage)
	assert.Equal(t, StatusPending, task.Status)
}

func TestTaskDecodeSynthesizesMissingID(t *testing.T) {
	// `_id` 缺失或为空时不应失败，而是分配本地唯一 id
	payloads := []string{
		`{"carId":"c1","task":"Oil Change","status":"Pending"}`,
		`{"_id":"","carId":"c1","task":"Tire Rotation","status":"Pending"}`,
	}

	seen := make(map[string]bool)
	for _, payload := range payloads {
		var task MaintenanceTask
		require.NoError(t, json.Unmarshal([]byte(payload), &task))
		require.NotEmpty(t, task.ID)
		assert.False(t, seen[task.ID], "synthesized ids must be unique")
		seen[task.ID] = true
	}
}

func TestTaskDecodeMissingRequiredField(t *testing.T) {
	cases := map[string]string{
		"missing carId":  `{"_id":"t1","task":"Oil Change","status":"Pending"}`,
		"missing task":   `{"_id":"t1","carId":"c1","status":"Pending"}`,
		"missing status": `{"_id":"t1","carId":"c1","task":"Oil Change"}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			var task MaintenanceTask
			assert.Error(t, json.Unmarshal([]byte(payload), &task))
		})
	}
}

func TestDedupeTasksKeepsFirstSeenOrder(t *testing.T) {
	first := MaintenanceTask{ID: "t1", CarID: "c1", Task: "Oil Change", Status: StatusPending}
	duplicate := MaintenanceTask{ID: "t1", CarID: "c1", Task: "Oil Change (dup)", Status: StatusOverdue}
	other := MaintenanceTask{ID: "t2", CarID: "c1", Task: "Tire Rotation", Status: StatusPending}

	result := DedupeTasks([]MaintenanceTask{first, duplicate, other})

	require.Len(t, result, 2)
	assert.Equal(t, first, result[0])
	assert.Equal(t, other, result[1])
}

func TestIsOverdue(t *testing.T) {
	assert.True(t, (&MaintenanceTask{Status: "Overdue"}).IsOverdue())
	assert.True(t, (&MaintenanceTask{Status: "OVERDUE"}).IsOverdue())
	assert.False(t, (&MaintenanceTask{Status: StatusPending}).IsOverdue())
}

func TestAuthResultDecode(t *testing.T) {
	payload := `{"access_token":"x","refresh_token":"y","user":{"email":"a@b.com","name":"A","cars":[]}}`

	var result AuthResult
	require.NoError(t, json.Unmarshal([]byte(payload), &result))

	assert.Equal(t, "x", result.AccessToken)
	assert.Equal(t, "y", result.RefreshToken)
	assert.Equal(t, "a@b.com", result.User.Email)
	assert.NotNil(t, result.User.Cars)
	assert.Empty(t, result.User.Cars)
}
