package fetcher

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"crypto-setup-sentry/internal/storage"
	"crypto-setup-sentry/pkg/types"
)

const (
	okxPublicWS       = "wss://ws.okx.com:8443/ws/v5/public"
	streamPingEvery   = 20 * time.Second
	streamReconnectIn = 5 * time.Second
)

// TickerStream OKX行情WebSocket流：订阅优先交易对的实时ticker并写入状态缓存
type TickerStream struct {
	proxy   string
	symbols []string
	state   *storage.ScanState

	mu          sync.RWMutex
	conn        *websocket.Conn
	isConnected bool
	done        chan struct{}
}

// okxTickerPush OKX ticker推送结构
type okxTickerPush struct {
	Arg struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data []okxTicker `json:"data"`
}

// NewTickerStream 创建ticker流
func NewTickerStream(networkConfig types.NetworkConfig, symbols []string, state *storage.ScanState) *TickerStream {
	return &TickerStream{
		proxy:   networkConfig.Proxy,
		symbols: symbols,
		state:   state,
		done:    make(chan struct{}),
	}
}

// Start 建立连接并启动读取、心跳循环
func (s *TickerStream) Start() error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("未配置订阅交易对")
	}
	if err := s.connect(); err != nil {
		return err
	}
	go s.readLoop()
	go s.pingLoop()
	return nil
}

func (s *TickerStream) connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dialer := websocket.DefaultDialer
	if s.proxy != "" {
		proxyURL, err := url.Parse(s.proxy)
		if err != nil {
			return fmt.Errorf("解析代理URL失败: %v", err)
		}
		dialer.Proxy = http.ProxyURL(proxyURL)
	}

	conn, _, err := dialer.Dial(okxPublicWS, nil)
	if err != nil {
		return fmt.Errorf("WebSocket连接失败: %v", err)
	}

	sub := struct {
		Op   string `json:"op"`
		Args []struct {
			Channel string `json:"channel"`
			InstID  string `json:"instId"`
		} `json:"args"`
	}{Op: "subscribe"}
	for _, sym := range s.symbols {
		sub.Args = append(sub.Args, struct {
			Channel string `json:"channel"`
			InstID  string `json:"instId"`
		}{Channel: "tickers", InstID: sym})
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("发送订阅消息失败: %v", err)
	}

	s.conn = conn
	s.isConnected = true

	zap.L().Info("✅ 行情WebSocket已连接",
		zap.String("endpoint", okxPublicWS),
		zap.Int("symbols", len(s.symbols)))
	return nil
}

func (s *TickerStream) readLoop() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()

		if conn == nil {
			if err := s.connect(); err != nil {
				zap.L().Warn("⚠️ WebSocket重连失败", zap.Error(err))
				select {
				case <-s.done:
					return
				case <-time.After(streamReconnectIn):
				}
			}
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			zap.L().Error("❌ WebSocket读取消息失败", zap.Error(err))
			s.handleDisconnect()
			continue
		}

		if err := s.handleMessage(message); err != nil {
			zap.L().Warn("⚠️ 解析行情推送失败", zap.Error(err))
		}
	}
}

func (s *TickerStream) handleMessage(message []byte) error {
	var push okxTickerPush
	if err := json.Unmarshal(message, &push); err != nil {
		return err
	}
	if push.Arg.Channel != "tickers" {
		return nil
	}

	for _, t := range push.Data {
		md := parseTicker(t)
		if md == nil {
			continue
		}
		s.state.StoreTicker(md)
	}
	return nil
}

func (s *TickerStream) pingLoop() {
	ticker := time.NewTicker(streamPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.RLock()
			conn := s.conn
			connected := s.isConnected
			s.mu.RUnlock()

			if !connected || conn == nil {
				continue
			}
			// OKX要求文本"ping"保活
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				zap.L().Error("❌ 发送心跳失败", zap.Error(err))
				s.handleDisconnect()
			}
		}
	}
}

func (s *TickerStream) handleDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.isConnected = false
}

// Close 停止流并关闭连接
func (s *TickerStream) Close() error {
	close(s.done)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		s.isConnected = false
		return err
	}
	return nil
}

// IsConnected 检查连接状态
func (s *TickerStream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}
