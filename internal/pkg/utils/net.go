// internal/pkg/utils/net.go
package utils

import (
	"net"
)

// GetOutboundIP 获取本机对外通信使用的 IP，用于向注册中心上报实例地址。
// 通过向公网地址发起一次 UDP “连接”（不会真的发包）让内核选路。
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
