package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/bechamine/autocare/internal/models"
)

// ListMaintenanceTasks 获取车辆的保养任务（含预测任务）
// 服务端偶尔会返回重复条目，按 id 去重后返回
func (c *Client) ListMaintenanceTasks(ctx context.Context, vehicleID string) ([]models.MaintenanceTask, error) {
	if vehicleID == "" {
		return nil, ErrInvalidRequest
	}

	r := request{
		method:        http.MethodGet,
		path:          "/maintenance/" + vehicleID + "/predict",
		authenticated: true,
	}

	var tasks []models.MaintenanceTask
	if err := c.doJSON(ctx, r, &tasks); err != nil {
		return nil, err
	}

	deduped := models.DedupeTasks(tasks)
	if len(deduped) != len(tasks) {
		c.logger.Debug("Dropped duplicate tasks",
			zap.String("car_id", vehicleID),
			zap.Int("before", len(tasks)),
			zap.Int("after", len(deduped)))
	}

	return deduped, nil
}

// AddTask 新增保养任务
func (c *Client) AddTask(ctx context.Context, task models.MaintenanceTask) (*models.MaintenanceTask, error) {
	if task.CarID == "" {
		return nil, ErrInvalidRequest
	}

	payload := map[string]any{
		"carId":  task.CarID,
		"task":   task.Task,
		"status": task.Status,
	}
	if task.DueDate != "" {
		payload["dueDate"] = task.DueDate
	}
	if task.NextMileage != nil {
		payload["nextMileage"] = *task.NextMileage
	}

	r, err := jsonRequest(http.MethodPost, "/maintenance/"+task.CarID+"/task", payload, true)
	if err != nil {
		return nil, err
	}

	var created models.MaintenanceTask
	if err := c.doJSON(ctx, r, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CompleteTask 标记任务完成，返回更新后的任务
func (c *Client) CompleteTask(ctx context.Context, taskID string) (*models.MaintenanceTask, error) {
	if taskID == "" {
		return nil, ErrInvalidRequest
	}

	r := request{
		method:        http.MethodPut,
		path:          "/maintenance/task/" + taskID + "/complete",
		authenticated: true,
	}

	var updated models.MaintenanceTask
	if err := c.doJSON(ctx, r, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateTaskMileage 更新任务的里程数
func (c *Client) UpdateTaskMileage(ctx context.Context, taskID, vehicleID string, newMileage int, status string) error {
	if taskID == "" || vehicleID == "" {
		return ErrInvalidRequest
	}

	r, err := jsonRequest(http.MethodPatch, "/maintenance/"+taskID, map[string]any{
		"carId":      vehicleID,
		"newMileage": newMileage,
		"status":     status,
	}, true)
	if err != nil {
		return err
	}

	_, err = c.do(ctx, r)
	return err
}
