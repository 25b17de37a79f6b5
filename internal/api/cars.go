package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bechamine/autocare/internal/models"
)

// ListMyVehicles 获取当前用户的车辆列表
func (c *Client) ListMyVehicles(ctx context.Context) ([]models.Vehicle, error) {
	r := request{
		method:        http.MethodPost,
		path:          "/cars/owner",
		contentType:   contentTypeJSON,
		authenticated: true,
	}

	var vehicles []models.Vehicle
	if err := c.doJSON(ctx, r, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UploadVehicleImage 上传车辆照片，后端识别后创建车辆记录
func (c *Client) UploadVehicleImage(ctx context.Context, jpeg []byte) (*models.Vehicle, error) {
	if len(jpeg) == 0 {
		return nil, ErrInvalidRequest
	}

	body, contentType, err := multipartBody(nil, jpeg)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/cars/upload-image",
		body:          body,
		contentType:   contentType,
		authenticated: true,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Car *models.Vehicle `json:"car"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &DecodingError{Body: raw, Err: err}
	}
	if resp.Car == nil {
		return nil, &DecodingError{Body: raw, Err: fmt.Errorf("car missing in response")}
	}

	return resp.Car, nil
}

// UpdateVehicle 更新车辆资料
// 带图片时发送 multipart（data 部分为 JSON 编码的车辆，image 部分为 JPEG），
// 否则发送普通 JSON。返回服务端确认后的车辆，调用方应以此替换本地副本
func (c *Client) UpdateVehicle(ctx context.Context, vehicle models.Vehicle, image []byte) (*models.Vehicle, error) {
	if vehicle.ID == "" {
		return nil, ErrInvalidRequest
	}

	data, err := json.Marshal(vehicle)
	if err != nil {
		return nil, fmt.Errorf("encode vehicle: %w", err)
	}

	r := request{
		method:        http.MethodPatch,
		path:          "/cars/" + vehicle.ID,
		authenticated: true,
	}
	if len(image) > 0 {
		body, contentType, err := multipartBody(data, image)
		if err != nil {
			return nil, err
		}
		r.body = body
		r.contentType = contentType
	} else {
		r.body = data
		r.contentType = contentTypeJSON
	}

	var updated models.Vehicle
	if err := c.doJSON(ctx, r, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
