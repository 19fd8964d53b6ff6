package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	ws_board "github.com/humanbelnik/pokerboard/internal/delivery/ws/board"
	usecase_session "github.com/humanbelnik/pokerboard/internal/usecase/session"
)

type CreateBoardResponse struct {
	Code            string `json:"code"`
	FacilitatorPath string `json:"facilitator_path"`
	ParticipantPath string `json:"participant_path"`
}

type wsEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	wsConn     *websocket.Conn
	wsDone     chan struct{}
	role       usecase_session.Role
}

func NewClient(baseURL string, role usecase_session.Role) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		wsDone:     make(chan struct{}),
		role:       role,
	}
}

func (c *Client) CreateBoard(code string) (string, error) {
	var body io.Reader
	if code != "" {
		data, err := sonic.Marshal(map[string]string{"code": code})
		if err != nil {
			return "", err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/v1/boards", body)
	if err != nil {
		return "", err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("failed to create board: %s - %s", resp.Status, string(data))
	}

	var response CreateBoardResponse
	if err := sonic.Unmarshal(data, &response); err != nil {
		return "", err
	}

	fmt.Printf("Board created: %s\n", response.Code)
	fmt.Printf("Share with the team: %s%s\n", c.baseURL, response.ParticipantPath)
	return response.Code, nil
}

func (c *Client) Connect(code string) error {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %v", err)
	}

	scheme := "ws"
	if base.Scheme == "https" {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   base.Host,
		Path:   fmt.Sprintf("/api/v1/boards/%s/%s/ws", code, c.role),
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket connection failed: %v", err)
	}
	c.wsConn = conn

	go c.listen()
	return nil
}

func (c *Client) listen() {
	defer close(c.wsDone)

	for {
		_, data, err := c.wsConn.ReadMessage()
		if err != nil {
			fmt.Printf("connection closed: %v\n", err)
			return
		}

		var event wsEvent
		if err := sonic.Unmarshal(data, &event); err != nil {
			fmt.Printf("bad event: %v\n", err)
			continue
		}

		switch event.Type {
		case ws_board.EventView:
			var v usecase_session.View
			if err := sonic.Unmarshal(event.Payload, &v); err != nil {
				fmt.Printf("bad view: %v\n", err)
				continue
			}
			render(os.Stdout, v)

		case ws_board.EventError:
			var p ws_board.ErrorPayload
			if err := sonic.Unmarshal(event.Payload, &p); err == nil {
				fmt.Printf("error [%s]: %s\n", p.Code, p.Message)
			}
		}
	}
}

func (c *Client) Send(cmd ws_board.Command) error {
	data, err := sonic.Marshal(cmd)
	if err != nil {
		return err
	}
	return c.wsConn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) Close() {
	if c.wsConn != nil {
		c.wsConn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		c.wsConn.Close()
		<-c.wsDone
	}
}

func render(w io.Writer, v usecase_session.View) {
	fmt.Fprintf(w, "\n=== %s [%s, %s] rev %d round %d ===\n", v.Code, v.Role, v.State, v.Revision, v.Round)
	fmt.Fprintf(w, "Epic:  %s\nStory: %s\nTask:  %s\n", v.Epic, v.Story, v.Task)

	fmt.Fprintln(w, "Participants:")
	for _, p := range v.Participants {
		card := "-"
		switch {
		case p.Vote != 0:
			card = p.Vote.String()
		case p.Voted:
			card = "?"
		}
		fmt.Fprintf(w, "  %-20s %s\n", p.Name, card)
	}
	if v.Name != "" && v.OwnVote != 0 {
		fmt.Fprintf(w, "Your card: %s\n", v.OwnVote)
	}
	if v.Decision != nil && v.Decision.Text != "" {
		fmt.Fprintf(w, "Decision: %s\n", v.Decision.Text)
	}

	if n := len(v.Messages); n > 0 {
		fmt.Fprintln(w, "Messages:")
		from := max(0, n-5)
		for _, m := range v.Messages[from:] {
			fmt.Fprintf(w, "  [%s] %s\n", m.PostedAt.Local().Format("15:04"), m.Text)
		}
	}
}

func parse(line string) (ws_board.Command, bool, error) {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch verb {
	case "join":
		return ws_board.Command{Type: ws_board.CommandJoin, Name: arg}, true, nil
	case "vote":
		value, err := strconv.Atoi(arg)
		if err != nil {
			return ws_board.Command{}, false, fmt.Errorf("vote needs a number")
		}
		return ws_board.Command{Type: ws_board.CommandVote, Value: value}, true, nil
	case "reveal":
		return ws_board.Command{Type: ws_board.CommandReveal}, true, nil
	case "hide":
		return ws_board.Command{Type: ws_board.CommandHide}, true, nil
	case "reset":
		return ws_board.Command{Type: ws_board.CommandReset}, true, nil
	case "epic":
		return ws_board.Command{Type: ws_board.CommandContent, Epic: &arg}, true, nil
	case "story":
		return ws_board.Command{Type: ws_board.CommandContent, Story: &arg}, true, nil
	case "task":
		return ws_board.Command{Type: ws_board.CommandContent, Task: &arg}, true, nil
	case "remove":
		return ws_board.Command{Type: ws_board.CommandRemove, Name: arg}, true, nil
	case "say":
		return ws_board.Command{Type: ws_board.CommandPost, Text: arg}, true, nil
	case "", "help":
		return ws_board.Command{}, false, nil
	}
	return ws_board.Command{}, false, fmt.Errorf("unknown command %q", verb)
}

const usage = `commands:
  join <name>      take a seat (participant)
  vote <card>      cast a card
  reveal | hide    show or hide the cards (facilitator)
  reset            clear all votes (facilitator)
  epic|story|task <text>
  remove <name>    drop a participant (facilitator)
  say <text>       post to the board feed
  quit`

func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	code := flag.String("code", "", "board code; facilitators get a new board when empty")
	role := flag.String("role", string(usecase_session.RoleParticipant), "facilitator or participant")
	flag.Parse()

	client := NewClient(*addr, usecase_session.Role(*role))
	if !client.role.Valid() {
		fmt.Printf("unknown role %q\n", *role)
		os.Exit(2)
	}

	boardCode := *code
	if boardCode == "" {
		if client.role != usecase_session.RoleFacilitator {
			fmt.Println("participants need -code")
			os.Exit(2)
		}
		created, err := client.CreateBoard("")
		if err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
		boardCode = created
	}

	if err := client.Connect(boardCode); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Println(usage)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "quit" {
			return
		}

		cmd, ok, err := parse(line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if !ok {
			fmt.Println(usage)
			continue
		}
		if err := client.Send(cmd); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
	}
}
