package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bechamine/autocare/internal/models"
)

func carsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cars",
		Short: "Manage your car profiles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your cars",
		RunE: func(cmd *cobra.Command, args []string) error {
			cars, err := a.client.ListMyVehicles(cmd.Context())
			if err != nil {
				return err
			}
			if len(cars) == 0 {
				fmt.Println("No cars yet.")
				return nil
			}
			for _, car := range cars {
				fmt.Printf("%s  %s %s (%d)  %d km\n",
					car.ID, car.Make, car.CarModel, car.Year, car.Mileage)
			}
			return nil
		},
	}

	var (
		make_, carModel, engine, imagePath string
		year, mileage                      int
	)
	update := &cobra.Command{
		Use:   "update <car-id>",
		Short: "Update a car profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			car := models.Vehicle{
				ID:       args[0],
				Make:     make_,
				CarModel: carModel,
				Year:     year,
				Mileage:  mileage,
				Engine:   engine,
			}

			var image []byte
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				image = data
			}

			updated, err := a.client.UpdateVehicle(cmd.Context(), car, image)
			if err != nil {
				return err
			}
			fmt.Printf("Updated: %s %s (%d), %d km\n",
				updated.Make, updated.CarModel, updated.Year, updated.Mileage)
			return nil
		},
	}
	update.Flags().StringVar(&make_, "make", "", "Manufacturer")
	update.Flags().StringVar(&carModel, "model", "", "Model name")
	update.Flags().IntVar(&year, "year", 0, "Model year")
	update.Flags().IntVar(&mileage, "mileage", 0, "Current mileage in km")
	update.Flags().StringVar(&engine, "engine", "", "Engine description")
	update.Flags().StringVar(&imagePath, "image", "", "Path to a JPEG photo of the car")

	addImage := &cobra.Command{
		Use:   "add <image-path>",
		Short: "Add a car by uploading a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			car, err := a.client.UploadVehicleImage(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Printf("Created car %s: %s %s\n", car.ID, car.Make, car.CarModel)
			return nil
		},
	}

	cmd.AddCommand(list, update, addImage)
	return cmd
}
