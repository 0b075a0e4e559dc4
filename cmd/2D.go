/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gomhd/InputParameters"
	"github.com/notargets/gomhd/model_problems/MHD2D"
)

type Model2D struct {
	GridFile string
	ICFile   string
	Profile  bool
	Verbose  bool
}

// TwoDCmd represents the 2D command
var TwoDCmd = &cobra.Command{
	Use:   "2D",
	Short: "Two dimensional reduced MHD solver, able to read grid files",
	Long: `Two dimensional reduced resistive MHD solver. Without a grid file the
domain in the input file is meshed with a structured triangulation.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		m2d := &Model2D{}
		if m2d.GridFile, err = cmd.Flags().GetString("gridFile"); err != nil {
			panic(err)
		}
		if m2d.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		m2d.Profile, _ = cmd.Flags().GetBool("profile")
		m2d.Verbose = viper.GetBool("verbose")
		ip := processInput(m2d)
		if m2d.Profile {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		}
		if err = Run2D(m2d, ip); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

const exampleFile = `
########################################
Title: "Tearing mode"
FinalTime: 1
TimeStep: 0.01
Scheme: BackwardEuler # Can be ForwardEuler or RK4
InitType: Wave # Can be Island
Viscosity: 0.001
Resistivity: 0.001
Amplitude: 0.1
Eps: 0.01
Nx: 32
########################################
`

func processInput(m2d *Model2D) (ip *InputParameters.InputParametersMHD) {
	var (
		err  error
		data []byte
	)
	if len(m2d.ICFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	if data, err = os.ReadFile(m2d.ICFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.InputParametersMHD{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	if m2d.Verbose {
		ip.Print()
	}
	return
}

func init() {
	rootCmd.AddCommand(TwoDCmd)
	TwoDCmd.Flags().StringP("gridFile", "F", "", "Grid file to read in Gambit (.neu) format, optional")
	TwoDCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- TimeStep\n\t- Resistivity")
	TwoDCmd.Flags().Bool("profile", false, "write a CPU profile to the current directory")
}

func Run2D(m2d *Model2D, ip *InputParameters.InputParametersMHD) (err error) {
	var (
		c *MHD2D.MHD
	)
	if c, err = MHD2D.NewMHD(ip, m2d.GridFile, m2d.Verbose); err != nil {
		return
	}
	return c.Run()
}
