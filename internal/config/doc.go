// Package config 负责加载与解析进程配置，支持 YAML/JSON 配置文件与默认值合并。
// 该层不依赖其它内部包，供 main 与各 cmd 工具直接读取结构化配置。
package config
