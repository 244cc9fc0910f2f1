// internal/pkg/config/config.go
package config

import (
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构。
// 从 YAML 文件加载，部分字段允许被环境变量覆盖（优先级：环境变量 > 文件 > 默认值）。
type Config struct {
	App struct {
		// LowStockRule 是低库存判定的 CEL 表达式，留空时使用默认规则。
		LowStockRule string `yaml:"lowStockRule"`
		// DefaultReorderLevel 是从商品服务导入库存行时的默认补货阈值。
		DefaultReorderLevel int `yaml:"defaultReorderLevel"`
	} `yaml:"app"`

	Infra struct {
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers           []string `yaml:"brokers"`
			OrderEventsTopic  string   `yaml:"orderEventsTopic"`
			StockRepairTopic  string   `yaml:"stockRepairTopic"`
			StockRepairGroup  string   `yaml:"stockRepairGroup"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Nacos struct {
			ServerAddrs string `yaml:"serverAddrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
	} `yaml:"infra"`

	// Services 是服务名到静态地址的映射，在没有 Nacos 的环境（本地、测试）
	// 中作为服务发现的兜底。
	Services map[string]string `yaml:"services"`
}

var (
	current Config
	once    sync.Once
)

// Load 从指定路径加载配置文件。路径为空时依次尝试 CONFIG_PATH 环境变量
// 和 ./config.yaml；文件不存在时返回仅含默认值与环境变量的配置。
func Load(path string) (*Config, error) {
	if path == "" {
		path = getEnv("CONFIG_PATH", "config.yaml")
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// MustLoad 加载配置并缓存为全局单例，供 bootstrap 使用。
func MustLoad(path string) *Config {
	once.Do(func() {
		cfg, err := Load(path)
		if err != nil {
			panic("config: " + err.Error())
		}
		current = *cfg
	})
	return &current
}

func applyDefaults(cfg *Config) {
	if cfg.App.DefaultReorderLevel == 0 {
		cfg.App.DefaultReorderLevel = 20
	}
	if cfg.Infra.Kafka.OrderEventsTopic == "" {
		cfg.Infra.Kafka.OrderEventsTopic = "order-events-topic"
	}
	if cfg.Infra.Kafka.StockRepairTopic == "" {
		cfg.Infra.Kafka.StockRepairTopic = "stock-sync-repair-topic"
	}
	if cfg.Infra.Kafka.StockRepairGroup == "" {
		cfg.Infra.Kafka.StockRepairGroup = "stock-sync-repair-group"
	}
	if cfg.Infra.Jaeger.Endpoint == "" {
		cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	}
	if cfg.Services == nil {
		cfg.Services = map[string]string{}
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.Infra.Mysql.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Infra.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v := os.Getenv("NACOS_SERVER_ADDRS"); v != "" {
		cfg.Infra.Nacos.ServerAddrs = v
	}
	if v := os.Getenv("NACOS_NAMESPACE"); v != "" {
		cfg.Infra.Nacos.Namespace = v
	}
	if v := os.Getenv("NACOS_GROUP"); v != "" {
		cfg.Infra.Nacos.Group = v
	}
	if v := os.Getenv("ZOOKEEPER_SERVERS"); v != "" {
		cfg.Infra.Zookeeper.Servers = strings.Split(v, ",")
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
