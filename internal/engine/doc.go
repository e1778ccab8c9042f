// Package engine 轮牌公平性引擎。
//
// 本包只包含纯逻辑：排队排名、半轮配对判定、跳过/休息覆盖层、撤销日志、
// 网格投影与看板快照的乐观更新。所有存储访问通过调用方注入的接口完成，
// 本包不直接依赖数据库或传输层。
package engine
