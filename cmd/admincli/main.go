// Package main provides the admin CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apiconnect "github.com/osa030/automix/internal/api/connect"
)

var (
	app    = kingpin.New("automix-admincli", "automix admin client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Show controller status")

	// enable command
	enableCmd = app.Command("enable", "Turn AutoDJ on")

	// disable command
	disableCmd = app.Command("disable", "Turn AutoDJ off")

	// watch command
	watchCmd = app.Command("watch", "Stream controller events until interrupted")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *token == "" {
		fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
		os.Exit(1)
	}

	client := apiconnect.NewControlServiceClient(http.DefaultClient, *server)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case statusCmd.FullCommand():
		err = status(ctx, client, *token)
	case enableCmd.FullCommand():
		err = setEnabled(ctx, client, *token, true)
	case disableCmd.FullCommand():
		err = setEnabled(ctx, client, *token, false)
	case watchCmd.FullCommand():
		err = watch(ctx, client, *token)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func status(ctx context.Context, client *apiconnect.ControlServiceClient, token string) error {
	req := connect.NewRequest(&emptypb.Empty{})
	req.Header().Set(apiconnect.AdminTokenHeader, token)
	resp, err := client.GetStatus(ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(renderStatus(resp.Msg))
	return nil
}

func setEnabled(ctx context.Context, client *apiconnect.ControlServiceClient, token string, enabled bool) error {
	req := connect.NewRequest(wrapperspb.Bool(enabled))
	req.Header().Set(apiconnect.AdminTokenHeader, token)
	resp, err := client.SetEnabled(ctx, req)
	if err != nil {
		return err
	}

	if enabled {
		fmt.Println("AutoDJ enabled")
	} else {
		fmt.Println("AutoDJ disabled")
	}
	fmt.Println(renderStatus(resp.Msg))
	return nil
}

func watch(ctx context.Context, client *apiconnect.ControlServiceClient, token string) error {
	req := connect.NewRequest(&emptypb.Empty{})
	req.Header().Set(apiconnect.AdminTokenHeader, token)
	stream, err := client.Subscribe(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		fmt.Println(formatEvent(stream.Msg()))
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
