// Package command defines the presupuesto-cli commands on urfave/cli/v2.
//
//	presupuesto-cli budget list
//	presupuesto-cli budget get ID
//	presupuesto-cli budget create --name N [--timestamp T] --state JSON | --state-file PATH
//	presupuesto-cli budget update --name N [--timestamp T] --state JSON | --state-file PATH ID
//	presupuesto-cli budget delete [--force] ID
//	presupuesto-cli health
//
// Results go to the app's Writer in the format chosen by --output.
package command
