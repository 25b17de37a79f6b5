package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bechamine/autocare/internal/models"
)

func tasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage maintenance tasks",
	}

	list := &cobra.Command{
		Use:   "list <car-id>",
		Short: "List maintenance tasks for a car",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.client.ListMaintenanceTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks.")
				return nil
			}
			for _, t := range tasks {
				due := t.DueDate
				if due == "" && t.NextMileage != nil {
					due = fmt.Sprintf("at %d km", *t.NextMileage)
				}
				fmt.Printf("%s  %-30s %-10s %s\n", t.ID, t.Task, t.Status, due)
			}
			return nil
		},
	}

	var (
		description, dueDate, status string
		nextMileage                  int
	)
	add := &cobra.Command{
		Use:   "add <car-id>",
		Short: "Add a maintenance task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := models.MaintenanceTask{
				CarID:   args[0],
				Task:    description,
				DueDate: dueDate,
				Status:  status,
			}
			if cmd.Flags().Changed("next-mileage") {
				task.NextMileage = &nextMileage
			}

			created, err := a.client.AddTask(cmd.Context(), task)
			if err != nil {
				return err
			}
			fmt.Printf("Created task %s: %s\n", created.ID, created.Task)
			return nil
		},
	}
	add.Flags().StringVar(&description, "task", "", "Task description")
	add.Flags().StringVar(&dueDate, "due-date", "", "Due date (ISO-8601)")
	add.Flags().IntVar(&nextMileage, "next-mileage", 0, "Due mileage in km")
	add.Flags().StringVar(&status, "status", models.StatusPending, "Task status")
	add.MarkFlagRequired("task")

	complete := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := a.client.CompleteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Task %s is now %s\n", updated.ID, updated.Status)
			return nil
		},
	}

	var mileageCar string
	var newMileage int
	mileage := &cobra.Command{
		Use:   "mileage <task-id>",
		Short: "Update the mileage of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.client.UpdateTaskMileage(cmd.Context(), args[0], mileageCar, newMileage, models.StatusPending)
			if err != nil {
				return err
			}
			fmt.Println("Task updated.")
			return nil
		},
	}
	mileage.Flags().StringVar(&mileageCar, "car", "", "Car id the task belongs to")
	mileage.Flags().IntVar(&newMileage, "km", 0, "New mileage in km")
	mileage.MarkFlagRequired("car")
	mileage.MarkFlagRequired("km")

	cmd.AddCommand(list, add, complete, mileage)
	return cmd
}
