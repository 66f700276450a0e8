package client

import (
	"context"

	"github.com/damwatch/taskdesk/internal/task"
)

func (c *Client) CreateTask(ctx context.Context, req *task.CreateTaskRequest) (*task.Task, error) {
	res, err := call[task.CreateTaskRequest, task.TaskResponse](ctx, c, task.ServiceName, "CreateTask", req)
	if err != nil {
		return nil, err
	}
	return res.Task, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*task.Task, error) {
	res, err := call[task.GetTaskRequest, task.TaskResponse](ctx, c, task.ServiceName, "GetTask", &task.GetTaskRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return res.Task, nil
}

func (c *Client) ListTasks(ctx context.Context, req *task.ListTasksRequest) (*task.ListTasksResponse, error) {
	return call[task.ListTasksRequest, task.ListTasksResponse](ctx, c, task.ServiceName, "ListTasks", req)
}

// TaskAction runs one of AcceptTask, DeclineTask, ResumeTask, CompleteTask.
func (c *Client) TaskAction(ctx context.Context, method, id string) (*task.Task, error) {
	res, err := call[task.TaskActionRequest, task.TaskResponse](ctx, c, task.ServiceName, method, &task.TaskActionRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return res.Task, nil
}

func (c *Client) RequestRevision(ctx context.Context, id, reason string) (*task.Task, error) {
	res, err := call[task.RequestRevisionRequest, task.TaskResponse](ctx, c, task.ServiceName, "RequestRevision", &task.RequestRevisionRequest{ID: id, Reason: reason})
	if err != nil {
		return nil, err
	}
	return res.Task, nil
}

func (c *Client) UpdateProgress(ctx context.Context, id string, progress int) (*task.Task, error) {
	res, err := call[task.UpdateProgressRequest, task.TaskResponse](ctx, c, task.ServiceName, "UpdateProgress", &task.UpdateProgressRequest{ID: id, Progress: progress})
	if err != nil {
		return nil, err
	}
	return res.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := call[task.TaskActionRequest, task.DeleteTaskResponse](ctx, c, task.ServiceName, "DeleteTask", &task.TaskActionRequest{ID: id})
	return err
}
